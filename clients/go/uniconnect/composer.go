package uniconnect

import (
	"context"
	"strings"
	"sync"
)

// Composer accepts outbound text and submits it as a new message. Sends are
// single-flight: a second submit while one is in flight is a no-op. The sent
// message is never appended locally; it arrives through the synchronizer's
// notification-triggered refresh.
type Composer struct {
	client *Client
	sync   *Synchronizer

	mu       sync.Mutex
	draft    string
	inFlight bool
}

// NewComposer creates a composer bound to a synchronizer, which supplies the
// target channel.
func NewComposer(client *Client, sync *Synchronizer) *Composer {
	return &Composer{client: client, sync: sync}
}

// SetDraft replaces the pending input text.
func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the pending input text.
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Send submits the draft to the selected channel. Empty or whitespace-only
// drafts, no selection, and an in-flight send are all silent no-ops. On
// success the draft is cleared; on failure it is preserved so the user can
// resubmit, and the error is logged and returned. There is no automatic
// retry.
func (c *Composer) Send(ctx context.Context) error {
	// The target channel is captured in the same critical section as the
	// in-flight check, so a selection change cannot retarget a send that has
	// already passed the gate.
	c.mu.Lock()
	content := strings.TrimSpace(c.draft)
	channelID := c.sync.ChannelID()
	if content == "" || channelID == 0 || c.inFlight {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.mu.Unlock()

	_, err := c.client.PostMessage(ctx, channelID, content)

	c.mu.Lock()
	c.inFlight = false
	if err == nil {
		c.draft = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.client.Logger.Error().Err(err).Int64("channel_id", channelID).Msg("send failed")
		return err
	}
	return nil
}
