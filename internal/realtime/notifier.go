package realtime

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/uniconnect/uniconnect/internal/store"
)

// Notifier is the write-side entry point: handlers call it after storing a
// message. With Redis configured the event goes through pub/sub (and comes
// back via the hub's consumer); without it the event goes straight to the
// local hub.
type Notifier struct {
	hub    *Hub
	rdb    *store.RedisStore
	logger zerolog.Logger
}

// NewNotifier creates a notifier bound to the hub and optional Redis store.
func NewNotifier(hub *Hub, rdb *store.RedisStore, logger zerolog.Logger) *Notifier {
	return &Notifier{hub: hub, rdb: rdb, logger: logger}
}

// NotifyInsert publishes an insert event for a stored message.
func (n *Notifier) NotifyInsert(ctx context.Context, channelID, messageID int64) error {
	ev := NewInsertEvent(channelID, messageID)

	if n.rdb == nil {
		n.hub.Broadcast(ev)
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.PublishInsert(ctx, channelID, payload)
}
