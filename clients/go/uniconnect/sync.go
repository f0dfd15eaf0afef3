package uniconnect

import (
	"context"
	"sync"
)

// PlaceholderSender is shown for messages whose sender id cannot be resolved
// to a profile. The message still renders; only the name degrades.
const PlaceholderSender = "Member"

// Subscriber delivers insert notifications for one channel. The production
// implementation is WebsocketSubscriber; tests substitute a fake so the
// refresh path can be driven without a live push transport.
type Subscriber interface {
	// Subscribe registers onInsert to fire on every message insert in the
	// channel. The returned cancel must stop further callbacks and release
	// the underlying stream.
	Subscribe(ctx context.Context, channelID int64, onInsert func()) (cancel func(), err error)
}

// SyncState is the synchronizer's position in its per-selection lifecycle.
type SyncState int

const (
	// StateUnselected: no channel chosen, empty view, no subscription.
	StateUnselected SyncState = iota
	// StateLoading: initial fetch and sender enrichment in flight.
	StateLoading
	// StateLive: load complete, subscription active; the view may be replaced
	// at any time by a notification-triggered refresh.
	StateLive
	// StateError: the load failed, the view is empty; reselecting retries.
	// Nothing blocks re-selection.
	StateError
)

// EnrichedMessage is a message with its sender resolved for display.
type EnrichedMessage struct {
	Message
	SenderName string
}

// Synchronizer maintains an ordered, sender-enriched view of one selected
// channel's messages, kept live by reloading in full on every insert
// notification. Reloads overlapping in flight are resolved last-write-wins;
// an epoch counter discards any reload that completes after the selection
// changed.
type Synchronizer struct {
	client *Client
	sub    Subscriber

	mu        sync.Mutex
	state     SyncState
	channelID int64
	epoch     uint64
	messages  []EnrichedMessage
	cancel    func()
}

// NewSynchronizer creates a synchronizer in the Unselected state.
func NewSynchronizer(client *Client, sub Subscriber) *Synchronizer {
	return &Synchronizer{client: client, sub: sub}
}

// Select switches the view to a channel: the previous subscription is torn
// down first, then the full load runs, then the insert subscription opens.
// On a load failure the view stays empty and no subscription opens;
// reselecting retries.
func (s *Synchronizer) Select(ctx context.Context, channelID int64) error {
	s.mu.Lock()
	s.teardownLocked()
	s.epoch++
	epoch := s.epoch
	s.channelID = channelID
	s.state = StateLoading
	s.messages = nil
	s.mu.Unlock()

	if err := s.refresh(ctx, channelID, epoch); err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.state = StateError
		}
		s.mu.Unlock()
		s.client.Logger.Error().Err(err).Int64("channel_id", channelID).Msg("message load failed")
		return err
	}

	cancel, err := s.sub.Subscribe(ctx, channelID, func() {
		if err := s.Refresh(ctx); err != nil {
			s.client.Logger.Warn().Err(err).Int64("channel_id", channelID).Msg("refresh after insert failed")
		}
	})
	if err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.state = StateError
			s.messages = nil
		}
		s.mu.Unlock()
		s.client.Logger.Error().Err(err).Int64("channel_id", channelID).Msg("subscription failed")
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		// Selection moved on while we were subscribing.
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

// Deselect tears down the subscription and empties the view. It is
// unconditional and synchronous: after it returns, no callback for the old
// channel can mutate the view (late reloads fail the epoch check).
func (s *Synchronizer) Deselect() {
	s.mu.Lock()
	s.teardownLocked()
	s.epoch++
	s.channelID = 0
	s.state = StateUnselected
	s.messages = nil
	s.mu.Unlock()
}

// teardownLocked cancels the active subscription. Caller holds s.mu.
func (s *Synchronizer) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Refresh re-runs the full load for the currently selected channel. It is
// idempotent and safe to call repeatedly, both from the select path and from
// insert notifications.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateUnselected {
		s.mu.Unlock()
		return nil
	}
	channelID, epoch := s.channelID, s.epoch
	s.mu.Unlock()

	return s.refresh(ctx, channelID, epoch)
}

// refresh fetches the channel's messages, resolves senders in one batch, and
// commits the result as a full replacement of the view. The commit is guarded
// by the epoch captured before the fetch: a response that lands after the
// selection changed is discarded, never applied to the wrong channel.
func (s *Synchronizer) refresh(ctx context.Context, channelID int64, epoch uint64) error {
	listing, err := s.client.ListMessages(ctx, channelID)
	if err != nil {
		return err
	}

	// Distinct sender ids, one batch lookup.
	seen := make(map[string]bool)
	var senderIDs []string
	for _, msg := range listing.Messages {
		if !seen[msg.SenderID] {
			seen[msg.SenderID] = true
			senderIDs = append(senderIDs, msg.SenderID)
		}
	}

	names := map[string]string{}
	if len(senderIDs) > 0 {
		resolved, err := s.client.ResolveProfiles(ctx, senderIDs)
		if err != nil {
			// Degrade to placeholders rather than failing the whole load.
			s.client.Logger.Warn().Err(err).Msg("sender resolution failed")
		} else {
			names = resolved
		}
	}

	enriched := make([]EnrichedMessage, len(listing.Messages))
	for i, msg := range listing.Messages {
		name := names[msg.SenderID]
		if name == "" {
			name = PlaceholderSender
		}
		enriched[i] = EnrichedMessage{Message: msg, SenderName: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Stale response for a channel no longer selected.
		return nil
	}
	s.messages = enriched
	s.state = StateLive
	return nil
}

// Messages returns a copy of the current view.
func (s *Synchronizer) Messages() []EnrichedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EnrichedMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChannelID returns the selected channel id, 0 when unselected.
func (s *Synchronizer) ChannelID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnselected {
		return 0
	}
	return s.channelID
}
