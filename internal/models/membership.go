package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership records that a user belongs to a channel. At most one row exists
// per (channel, user) pair; the store enforces this with a unique constraint.
type Membership struct {
	ChannelID int64     `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}
