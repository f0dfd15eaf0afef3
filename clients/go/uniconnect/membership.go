package uniconnect

import (
	"context"
	"sync"
)

// MembershipGate tracks which channels the user is known to have joined and
// fires at most one join call per channel per session. The set is a
// best-effort guard against redundant calls; the server's unique constraint
// on (channel, user) is the real idempotency guarantee.
type MembershipGate struct {
	client *Client

	mu     sync.Mutex
	joined map[int64]bool
}

// NewMembershipGate creates a gate with an empty known-joined set.
func NewMembershipGate(client *Client) *MembershipGate {
	return &MembershipGate{
		client: client,
		joined: make(map[int64]bool),
	}
}

// Prime seeds the known-joined set from the server's membership listing.
// A failure is logged and leaves the set empty; joins then fall back to the
// fire-on-first-select path.
func (g *MembershipGate) Prime(ctx context.Context) {
	ids, err := g.client.ListMemberships(ctx)
	if err != nil {
		g.client.Logger.Warn().Err(err).Msg("membership listing failed")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		g.joined[id] = true
	}
}

// EnsureJoined joins a channel unless it is already in the known-joined set.
// The id enters the set on any attempt, success or failure: a failed join is
// logged and never retried this session, and never blocks viewing. code is
// only needed for study-group channels.
func (g *MembershipGate) EnsureJoined(ctx context.Context, channelID int64, code string) {
	g.mu.Lock()
	if g.joined[channelID] {
		g.mu.Unlock()
		return
	}
	g.joined[channelID] = true
	g.mu.Unlock()

	if _, err := g.client.JoinChannel(ctx, channelID, code); err != nil {
		g.client.Logger.Warn().Err(err).Int64("channel_id", channelID).Msg("channel join failed")
	}
}

// Joined reports whether a channel is in the known-joined set.
func (g *MembershipGate) Joined(channelID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.joined[channelID]
}
