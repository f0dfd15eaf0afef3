package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/uniconnect/uniconnect/internal/models"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func seedProfile(t *testing.T, s *SQLiteStore, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := s.UpsertProfile(context.Background(), id, name, nil); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return id
}

func seedGlobalChannel(t *testing.T, s *SQLiteStore, name string) *models.Channel {
	t.Helper()
	ch, err := s.CreateChannel(context.Background(), ChannelParams{
		Name:  name,
		Type:  models.ChannelGlobal,
		Scope: models.ScopeGlobal,
	})
	if err != nil {
		t.Fatalf("seed channel: %v", err)
	}
	return ch
}

func TestJoinChannelIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ch := seedGlobalChannel(t, s, "Global Lounge")
	user := seedProfile(t, s, "Alice Zhang")

	created, err := s.JoinChannel(ctx, ch.ID, user)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if !created {
		t.Fatal("first join must create a row")
	}

	created, err = s.JoinChannel(ctx, ch.ID, user)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if created {
		t.Fatal("second join must be a no-op")
	}

	count, err := s.CountChannelMembers(ctx, ch.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("member count = %d, want 1", count)
	}
}

func TestListChannelMessagesFiltersAndOrders(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ch := seedGlobalChannel(t, s, "Global Lounge")
	user := seedProfile(t, s, "Alice Zhang")

	a, err := s.CreateMessage(ctx, ch.ID, user, "A")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateMessage(ctx, ch.ID, user, "B"); err != nil {
		t.Fatal(err)
	}
	c, err := s.CreateMessage(ctx, ch.ID, user, "C")
	if err != nil {
		t.Fatal(err)
	}

	// Soft-delete C; it must never leave the store.
	if _, err := s.db.ExecContext(ctx, `UPDATE messages SET deleted = 1 WHERE id = ?`, c.ID); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.ListChannelMessages(ctx, ch.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "A" || msgs[1].Content != "B" {
		t.Fatalf("messages = %+v, want [A B]", msgs)
	}
	if msgs[0].ID != a.ID {
		t.Errorf("first message id = %d, want %d", msgs[0].ID, a.ID)
	}
}

func TestResolveProfilesSkipsUnknown(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	known := seedProfile(t, s, "Alice Zhang")
	unknown := uuid.New()

	names, err := s.ResolveProfiles(ctx, []uuid.UUID{known, unknown})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if names[known] != "Alice Zhang" {
		t.Errorf("known = %q", names[known])
	}
	if _, ok := names[unknown]; ok {
		t.Error("unknown id must be absent from the map")
	}
}

func TestGetChannelAbsentIsNilNil(t *testing.T) {
	s := testStore(t)
	ch, err := s.GetChannel(context.Background(), 999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ch != nil {
		t.Fatalf("channel = %+v, want nil for absent row", ch)
	}
}

func TestStudyGroupJoinCodeHashRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ch, err := s.CreateChannel(ctx, ChannelParams{
		Name:         "Algorithms Study Crew",
		Type:         models.ChannelStudyGroup,
		Scope:        models.ScopeGlobal,
		JoinCodeHash: "$2a$10$fakehashfortest",
	})
	if err != nil {
		t.Fatal(err)
	}

	hash, err := s.GetChannelJoinCodeHash(ctx, ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if hash != "$2a$10$fakehashfortest" {
		t.Fatalf("hash = %q", hash)
	}

	// Channels without a code report empty, not an error.
	plain := seedGlobalChannel(t, s, "Global Lounge")
	hash, err = s.GetChannelJoinCodeHash(ctx, plain.ID)
	if err != nil {
		t.Fatal(err)
	}
	if hash != "" {
		t.Fatalf("hash = %q, want empty", hash)
	}
}
