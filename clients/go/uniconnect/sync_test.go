package uniconnect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSubscriber records subscriptions and lets tests fire insert
// notifications directly.
type fakeSubscriber struct {
	mu      sync.Mutex
	active  map[int64]func()
	cancels int
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{active: make(map[int64]func())}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, channelID int64, onInsert func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[channelID] = onInsert
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.active, channelID)
		f.cancels++
	}, nil
}

func (f *fakeSubscriber) fire(channelID int64) {
	f.mu.Lock()
	cb := f.active[channelID]
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *fakeSubscriber) activeChannels() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for id := range f.active {
		ids = append(ids, id)
	}
	return ids
}

// chatServer serves per-channel message lists and batch profile resolution.
// Message lists are mutable so tests can simulate server-side inserts.
type chatServer struct {
	mu       sync.Mutex
	messages map[int64][]Message
	profiles map[string]string
	loads    map[int64]int
	slow     map[int64]chan struct{} // block this channel's list until closed
}

func newChatServer() *chatServer {
	return &chatServer{
		messages: make(map[int64][]Message),
		profiles: make(map[string]string),
		loads:    make(map[int64]int),
		slow:     make(map[int64]chan struct{}),
	}
}

func (cs *chatServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		id, _ := strconv.ParseInt(parts[1], 10, 64)

		cs.mu.Lock()
		gate := cs.slow[id]
		cs.loads[id]++
		msgs := append([]Message(nil), cs.messages[id]...)
		cs.mu.Unlock()

		if gate != nil {
			<-gate
			cs.mu.Lock()
			msgs = append([]Message(nil), cs.messages[id]...)
			cs.mu.Unlock()
		}

		json.NewEncoder(w).Encode(MessagesResponse{ChannelID: id, Messages: msgs})
	})
	mux.HandleFunc("/profiles/resolve", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		cs.mu.Lock()
		out := make(map[string]string)
		for _, id := range req.IDs {
			if name, ok := cs.profiles[id]; ok {
				out[id] = name
			}
		}
		cs.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]map[string]string{"profiles": out})
	})
	return mux
}

func (cs *chatServer) addMessage(channelID int64, senderID, content string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	id := int64(0)
	for _, msgs := range cs.messages {
		id += int64(len(msgs))
	}
	cs.messages[channelID] = append(cs.messages[channelID], Message{
		ID:        id + 1,
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

func (cs *chatServer) loadCount(channelID int64) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.loads[channelID]
}

func TestSelectLoadsAndEnriches(t *testing.T) {
	cs := newChatServer()
	cs.profiles["u1"] = "Alice Zhang"
	cs.addMessage(1, "u1", "first")
	cs.addMessage(1, "u2", "second") // no profile: placeholder
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	sub := newFakeSubscriber()
	sync := NewSynchronizer(NewClient(srv.URL, ""), sub)

	if err := sync.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sync.State() != StateLive {
		t.Fatalf("state = %v, want Live", sync.State())
	}

	msgs := sync.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Errorf("order wrong: %q, %q", msgs[0].Content, msgs[1].Content)
	}
	if msgs[0].SenderName != "Alice Zhang" {
		t.Errorf("sender = %q, want Alice Zhang", msgs[0].SenderName)
	}
	if msgs[1].SenderName != PlaceholderSender {
		t.Errorf("sender = %q, want placeholder %q", msgs[1].SenderName, PlaceholderSender)
	}
}

func TestInsertNotificationTriggersFullReload(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "hello")
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	sub := newFakeSubscriber()
	sync := NewSynchronizer(NewClient(srv.URL, ""), sub)
	if err := sync.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}

	cs.addMessage(1, "u1", "world")
	sub.fire(1)

	msgs := sync.Messages()
	if len(msgs) != 2 || msgs[1].Content != "world" {
		t.Fatalf("messages after notification = %+v, want the new message present", msgs)
	}
}

func TestChannelSwitchDiscardsStaleResponse(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "stale data for X")
	cs.addMessage(2, "u1", "fresh data for Y")
	release := make(chan struct{})
	cs.slow[1] = release
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	sub := newFakeSubscriber()
	sync := NewSynchronizer(NewClient(srv.URL, ""), sub)

	done := make(chan error, 1)
	go func() {
		done <- sync.Select(context.Background(), 1) // blocks server-side
	}()

	// Let the slow load get in flight, then switch to channel 2.
	waitFor(t, func() bool { return cs.loadCount(1) == 1 })
	if err := sync.Select(context.Background(), 2); err != nil {
		t.Fatalf("Select(2): %v", err)
	}

	// Release channel 1's response; it must be discarded.
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Select(1): %v", err)
	}

	msgs := sync.Messages()
	if len(msgs) != 1 || msgs[0].Content != "fresh data for Y" {
		t.Fatalf("view = %+v, want only channel 2's data", msgs)
	}
	if got := sync.ChannelID(); got != 2 {
		t.Fatalf("selected channel = %d, want 2", got)
	}
	if active := sub.activeChannels(); len(active) != 1 || active[0] != 2 {
		t.Fatalf("active subscriptions = %v, want exactly [2]", active)
	}
}

func TestSwitchTearsDownOldSubscription(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "x1")
	cs.addMessage(2, "u1", "y1")
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	sub := newFakeSubscriber()
	sync := NewSynchronizer(NewClient(srv.URL, ""), sub)
	ctx := context.Background()

	if err := sync.Select(ctx, 1); err != nil {
		t.Fatalf("Select(1): %v", err)
	}
	if err := sync.Select(ctx, 2); err != nil {
		t.Fatalf("Select(2): %v", err)
	}

	if active := sub.activeChannels(); len(active) != 1 || active[0] != 2 {
		t.Fatalf("active subscriptions = %v, want exactly [2]", active)
	}

	// An insert into channel 1 after the switch must not cause a reload.
	before := cs.loadCount(2)
	cs.addMessage(1, "u1", "x2")
	sub.fire(1) // no-op: subscription was torn down
	if got := cs.loadCount(2); got != before {
		t.Fatalf("channel 2 reloads = %d, want %d (no reload from channel 1's insert)", got, before)
	}
}

func TestDeselectClearsView(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "hello")
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	sub := newFakeSubscriber()
	sync := NewSynchronizer(NewClient(srv.URL, ""), sub)
	if err := sync.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}

	sync.Deselect()

	if sync.State() != StateUnselected {
		t.Fatalf("state = %v, want Unselected", sync.State())
	}
	if len(sync.Messages()) != 0 {
		t.Fatal("view must be empty after deselect")
	}
	if len(sub.activeChannels()) != 0 {
		t.Fatal("no subscription may survive deselect")
	}
}

func TestFailedLoadLeavesEmptyViewAndRetries(t *testing.T) {
	var fail = true
	cs := newChatServer()
	cs.addMessage(1, "u1", "hello")
	inner := cs.handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail && strings.Contains(r.URL.Path, "/messages") {
			http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()

	sub := newFakeSubscriber()
	sync := NewSynchronizer(NewClient(srv.URL, ""), sub)
	ctx := context.Background()

	if err := sync.Select(ctx, 1); err == nil {
		t.Fatal("expected load failure")
	}
	if sync.State() != StateError {
		t.Fatalf("state = %v, want Error", sync.State())
	}
	if len(sync.Messages()) != 0 {
		t.Fatal("failed load must leave an empty view")
	}
	if len(sub.activeChannels()) != 0 {
		t.Fatal("no subscription after a failed load")
	}

	// Reselecting retries; nothing blocks it.
	fail = false
	if err := sync.Select(ctx, 1); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if sync.State() != StateLive || len(sync.Messages()) != 1 {
		t.Fatal("reselect must recover the view")
	}
}

func TestResolveFailureDegradesToPlaceholders(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "hello")
	inner := cs.handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/profiles/resolve" {
			http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()

	sync := NewSynchronizer(NewClient(srv.URL, ""), newFakeSubscriber())
	if err := sync.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}

	msgs := sync.Messages()
	if len(msgs) != 1 || msgs[0].SenderName != PlaceholderSender {
		t.Fatalf("messages = %+v, want one message with placeholder sender", msgs)
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
