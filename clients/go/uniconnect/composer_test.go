package uniconnect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// composerFixture wires a chat server, synchronizer, and composer with
// channel 1 selected.
func composerFixture(t *testing.T) (*chatServer, *fakeSubscriber, *Synchronizer, *Composer, func()) {
	t.Helper()
	cs := newChatServer()
	inner := cs.handler()

	var postCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/messages") {
			atomic.AddInt64(&postCalls, 1)
			var req struct {
				Content string `json:"content"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			cs.addMessage(1, "u1", req.Content)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(PostMessageResponse{ID: 1, CreatedAt: time.Now()})
			return
		}
		inner.ServeHTTP(w, r)
	}))

	client := NewClient(srv.URL, "tok")
	sub := newFakeSubscriber()
	sync := NewSynchronizer(client, sub)
	if err := sync.Select(context.Background(), 1); err != nil {
		srv.Close()
		t.Fatalf("Select: %v", err)
	}
	return cs, sub, sync, NewComposer(client, sync), srv.Close
}

func TestSendThenObserve(t *testing.T) {
	_, sub, sync, composer, cleanup := composerFixture(t)
	defer cleanup()

	composer.SetDraft("  hello campus  ")
	if err := composer.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if composer.Draft() != "" {
		t.Fatal("draft must clear on success")
	}

	// The message is not appended locally; it arrives via the
	// insert-notification refresh.
	if len(sync.Messages()) != 0 {
		t.Fatal("no local append before the notification")
	}
	sub.fire(1)

	msgs := sync.Messages()
	if len(msgs) != 1 || msgs[0].Content != "hello campus" {
		t.Fatalf("messages = %+v, want the trimmed sent message", msgs)
	}
}

func TestSendWhitespaceIsNoOp(t *testing.T) {
	cs, _, _, composer, cleanup := composerFixture(t)
	defer cleanup()

	for _, draft := range []string{"", "   ", "\n\t"} {
		composer.SetDraft(draft)
		if err := composer.Send(context.Background()); err != nil {
			t.Fatalf("Send(%q): %v", draft, err)
		}
	}

	cs.mu.Lock()
	n := len(cs.messages[1])
	cs.mu.Unlock()
	if n != 0 {
		t.Fatalf("messages stored = %d, want 0 (whitespace sends issue no request)", n)
	}
}

func TestSendWithoutSelectionIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request may be issued without a selected channel")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	sync := NewSynchronizer(client, newFakeSubscriber())
	composer := NewComposer(client, sync)

	composer.SetDraft("hello")
	if err := composer.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if composer.Draft() != "hello" {
		t.Fatal("draft must be preserved on no-op")
	}
}

func TestSendFailurePreservesDraft(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "existing")
	inner := cs.handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/messages") {
			http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	sync := NewSynchronizer(client, newFakeSubscriber())
	if err := sync.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	composer := NewComposer(client, sync)

	composer.SetDraft("try me")
	if err := composer.Send(context.Background()); err == nil {
		t.Fatal("expected send error")
	}
	if composer.Draft() != "try me" {
		t.Fatal("draft must be preserved on failure for manual retry")
	}

	// In-flight flag cleared: a retry goes through.
	if err := composer.Send(context.Background()); err == nil {
		t.Fatal("expected send error on retry against failing server")
	}
}

func TestSendTargetsCurrentSelection(t *testing.T) {
	cs := newChatServer()
	cs.addMessage(1, "u1", "x1")
	cs.addMessage(2, "u1", "y1")
	inner := cs.handler()

	var posted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/messages") {
			posted = append(posted, r.URL.Path)
			json.NewEncoder(w).Encode(PostMessageResponse{ID: 9, CreatedAt: time.Now()})
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	sync := NewSynchronizer(client, newFakeSubscriber())
	composer := NewComposer(client, sync)
	ctx := context.Background()

	// Draft written against channel 1, selection moved to channel 2 before
	// the send: the message goes where the selection is at send time.
	if err := sync.Select(ctx, 1); err != nil {
		t.Fatalf("Select(1): %v", err)
	}
	composer.SetDraft("routed")
	if err := sync.Select(ctx, 2); err != nil {
		t.Fatalf("Select(2): %v", err)
	}
	if err := composer.Send(ctx); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(posted) != 1 || posted[0] != "/channels/2/messages" {
		t.Fatalf("posts = %v, want exactly one to /channels/2/messages", posted)
	}
}

func TestSendSingleFlight(t *testing.T) {
	cs := newChatServer()
	inner := cs.handler()

	var posts int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/messages") {
			atomic.AddInt64(&posts, 1)
			<-release
			json.NewEncoder(w).Encode(PostMessageResponse{ID: 1, CreatedAt: time.Now()})
			return
		}
		inner.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	sync := NewSynchronizer(client, newFakeSubscriber())
	if err := sync.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	composer := NewComposer(client, sync)
	composer.SetDraft("only once")

	done := make(chan struct{})
	go func() {
		composer.Send(context.Background())
		close(done)
	}()

	waitFor(t, func() bool { return atomic.LoadInt64(&posts) == 1 })

	// A second submit while the first is in flight is a silent no-op.
	if err := composer.Send(context.Background()); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if n := atomic.LoadInt64(&posts); n != 1 {
		t.Fatalf("posts = %d, want 1 (single-flight)", n)
	}

	close(release)
	<-done
}
