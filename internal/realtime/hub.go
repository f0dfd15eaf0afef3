package realtime

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/uniconnect/uniconnect/internal/metrics"
	"github.com/uniconnect/uniconnect/internal/store"
)

// Hub routes insert events to the websocket subscribers of the affected
// channel. All subscriber-map mutation happens inside Run's loop, so no
// locking is needed.
type Hub struct {
	logger zerolog.Logger
	rdb    *store.RedisStore // nil in single-instance mode

	register   chan *subscriber
	unregister chan *subscriber
	events     chan Event

	subscribers map[int64]map[*subscriber]bool
}

// NewHub creates a hub. rdb may be nil, in which case events only reach
// subscribers connected to this instance.
func NewHub(logger zerolog.Logger, rdb *store.RedisStore) *Hub {
	return &Hub{
		logger:      logger,
		rdb:         rdb,
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		events:      make(chan Event, 64),
		subscribers: make(map[int64]map[*subscriber]bool),
	}
}

// Broadcast queues an event for delivery to the subscribers of its channel.
func (h *Hub) Broadcast(ev Event) {
	h.events <- ev
}

// Run processes registrations and event fanout until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.consumeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			if h.subscribers[sub.channelID] == nil {
				h.subscribers[sub.channelID] = make(map[*subscriber]bool)
			}
			h.subscribers[sub.channelID][sub] = true
			metrics.RealtimeSubscribers.Inc()
			h.logger.Debug().
				Int64("channel_id", sub.channelID).
				Str("user_id", sub.userID).
				Msg("realtime subscriber attached")

		case sub := <-h.unregister:
			if subs, ok := h.subscribers[sub.channelID]; ok {
				if _, ok := subs[sub]; ok {
					delete(subs, sub)
					close(sub.send)
					if len(subs) == 0 {
						delete(h.subscribers, sub.channelID)
					}
					metrics.RealtimeSubscribers.Dec()
				}
			}

		case ev := <-h.events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			for sub := range h.subscribers[ev.ChannelID] {
				select {
				case sub.send <- payload:
					metrics.RealtimeEvents.Inc()
				default:
					// Slow consumer: drop it rather than stall the loop.
					delete(h.subscribers[ev.ChannelID], sub)
					close(sub.send)
					metrics.RealtimeSubscribers.Dec()
				}
			}
		}
	}
}

// consumeRedis feeds events published by any server instance into the local
// fanout loop.
func (h *Hub) consumeRedis(ctx context.Context) {
	pubsub := h.rdb.SubscribeInserts(ctx)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warn().Err(err).Msg("malformed realtime event")
				continue
			}
			h.Broadcast(ev)
		}
	}
}
