package uniconnect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// InsertEvent is one notification as delivered on the realtime stream. It is
// an invalidation signal only; the message content is fetched separately.
type InsertEvent struct {
	EventID   string `json:"event_id"`
	Event     string `json:"event"`
	ChannelID int64  `json:"channel_id"`
	MessageID int64  `json:"message_id"`
	Timestamp int64  `json:"ts"`
}

// WebsocketSubscriber implements Subscriber over the server's realtime
// websocket endpoint. One connection per subscription, scoped server-side to
// a single channel.
type WebsocketSubscriber struct {
	client *Client
}

// NewWebsocketSubscriber creates a subscriber sharing the client's base URL,
// token, and logger.
func NewWebsocketSubscriber(client *Client) *WebsocketSubscriber {
	return &WebsocketSubscriber{client: client}
}

// Subscribe dials the channel's realtime endpoint and fires onInsert for each
// insert event. Cancel closes the connection; after it returns no further
// callbacks fire.
func (w *WebsocketSubscriber) Subscribe(ctx context.Context, channelID int64, onInsert func()) (func(), error) {
	wsURL, err := w.endpointURL(channelID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			conn.Close()
		})
	}

	go func() {
		defer cancel()
		for {
			var ev InsertEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case <-done:
				return
			default:
			}
			if ev.Event == "insert" && ev.ChannelID == channelID {
				onInsert()
			}
		}
	}()

	return cancel, nil
}

// endpointURL maps the HTTP base URL to the channel's websocket endpoint,
// carrying the token as a query parameter since websocket clients cannot
// always set headers.
func (w *WebsocketSubscriber) endpointURL(channelID int64) (string, error) {
	u, err := url.Parse(w.client.BaseURL)
	if err != nil {
		return "", err
	}

	switch {
	case u.Scheme == "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf("/realtime/channels/%d", channelID)

	if w.client.Token != "" {
		q := u.Query()
		q.Set("token", w.client.Token)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
