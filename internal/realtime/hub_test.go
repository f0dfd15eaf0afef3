package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zerolog.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func attach(hub *Hub, channelID int64) *subscriber {
	sub := &subscriber{
		hub:       hub,
		send:      make(chan []byte, 4),
		channelID: channelID,
	}
	hub.register <- sub
	return sub
}

func recvEvent(t *testing.T, sub *subscriber) Event {
	t.Helper()
	select {
	case payload := <-sub.send:
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestHubRoutesByChannel(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	subX := attach(hub, 1)
	subY := attach(hub, 2)

	hub.Broadcast(NewInsertEvent(1, 42))

	ev := recvEvent(t, subX)
	if ev.ChannelID != 1 || ev.MessageID != 42 || ev.Event != EventInsert {
		t.Fatalf("event = %+v", ev)
	}
	if ev.ID == "" {
		t.Error("event id must be set")
	}

	select {
	case payload := <-subY.send:
		t.Fatalf("channel 2 subscriber received %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	sub := attach(hub, 1)
	hub.unregister <- sub

	select {
	case _, ok := <-sub.send:
		if ok {
			t.Fatal("expected closed channel, got payload")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	// Events after unregister go nowhere, and must not block the loop.
	hub.Broadcast(NewInsertEvent(1, 7))
	hub.Broadcast(NewInsertEvent(1, 8))
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub, cancel := testHub(t)
	defer cancel()

	sub := &subscriber{
		hub:       hub,
		send:      make(chan []byte), // unbuffered, never read: always slow
		channelID: 1,
	}
	hub.register <- sub

	hub.Broadcast(NewInsertEvent(1, 1))

	// Give the loop time to hit the full channel with nobody receiving.
	time.Sleep(50 * time.Millisecond)

	select {
	case _, ok := <-sub.send:
		if ok {
			t.Fatal("slow consumer should have been dropped, not served")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after drop")
	}
}
