// Package realtime fans message-insert notifications out to websocket
// subscribers. Each subscriber is scoped to exactly one channel; events for
// other channels never reach it. With Redis configured, events travel through
// pub/sub so every server instance sees inserts handled by its peers.
package realtime

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is one insert notification as delivered on the wire. Subscribers are
// expected to treat it purely as an invalidation signal and re-fetch the
// channel's messages; the event intentionally carries no message content.
type Event struct {
	ID        string `json:"event_id"`
	Event     string `json:"event"`
	ChannelID int64  `json:"channel_id"`
	MessageID int64  `json:"message_id"`
	Timestamp int64  `json:"ts"`
}

// EventInsert is the only event type currently emitted.
const EventInsert = "insert"

// NewInsertEvent builds an insert event for a freshly stored message.
func NewInsertEvent(channelID, messageID int64) Event {
	return Event{
		ID:        ulid.Make().String(),
		Event:     EventInsert,
		ChannelID: channelID,
		MessageID: messageID,
		Timestamp: time.Now().UnixMilli(),
	}
}
