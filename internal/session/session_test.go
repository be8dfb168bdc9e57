package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_CreateGetRefresh(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &Record{ID: "session_1", UserID: "user_a", ClientSecret: "cs_old"}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetBySecret(ctx, "cs_old")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "session_1" || got.UserID != "user_a" {
		t.Errorf("got %+v", got)
	}

	if err := store.Refresh(ctx, "session_1", "cs_new"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBySecret(ctx, "cs_old"); err == nil {
		t.Error("old secret should no longer resolve")
	}
	if _, err := store.GetBySecret(ctx, "cs_new"); err != nil {
		t.Errorf("new secret should resolve: %v", err)
	}

	if err := store.Refresh(ctx, "missing", "cs_x"); err == nil {
		t.Error("expected error refreshing unknown session")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d", count)
	}
}

func TestService_CreateAndRefresh(t *testing.T) {
	store := newTestStore(t)
	svc := NewService("sk-test", "agent_123", store, zap.NewNop())
	ctx := context.Background()

	sess, err := svc.Create(ctx, "user_a")
	if err != nil {
		t.Fatal(err)
	}
	if sess.AgentID != "agent_123" {
		t.Errorf("agent id = %s", sess.AgentID)
	}
	if sess.ClientSecret == "" || sess.SessionID == "" {
		t.Errorf("empty identifiers: %+v", sess)
	}

	newSecret, err := svc.Refresh(ctx, sess.ClientSecret)
	if err != nil {
		t.Fatal(err)
	}
	if newSecret == sess.ClientSecret {
		t.Error("refresh should mint a new secret")
	}

	if _, err := svc.Refresh(ctx, "cs_unknown"); err == nil {
		t.Error("expected error refreshing unknown secret")
	}
}

func TestService_NotConfigured(t *testing.T) {
	store := newTestStore(t)

	svc := NewService("", "agent_123", store, zap.NewNop())
	if _, err := svc.Create(context.Background(), ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured without API key, got %v", err)
	}

	svc = NewService("sk-test", "", store, zap.NewNop())
	if _, err := svc.Start(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured without agent ID, got %v", err)
	}
	if svc.Configured() {
		t.Error("Configured should be false without agent ID")
	}
}
