package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one channel message. IDs are server-assigned and increase with
// insertion order within a channel. Deleted marks a soft-delete; such rows
// never leave the server.
type Message struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool      `json:"-"`
}
