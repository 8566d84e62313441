package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hederavault/walletd/internal/core/domain"
)

func newTestStore(t *testing.T, secret string) (*SessionStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewSessionStore(client, secret, "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, mr, client
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store, mr, _ := newTestStore(t, "s3cret")
	ctx := context.Background()

	in := &domain.Session{IDToken: "id-token", AccessToken: "access-token", RefreshToken: "refresh-token"}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := mr.Get(defaultSessionKey)
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if strings.Contains(raw, "refresh-token") || strings.Contains(raw, "id-token") {
		t.Fatal("session stored in clear text")
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.IDToken != in.IDToken || out.AccessToken != in.AccessToken || out.RefreshToken != in.RefreshToken {
		t.Fatalf("unexpected session %+v", out)
	}
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	store, _, _ := newTestStore(t, "s3cret")
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSessionStore_Clear(t *testing.T) {
	store, _, _ := newTestStore(t, "s3cret")
	ctx := context.Background()

	_ = store.Save(ctx, &domain.Session{IDToken: "a"})
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after clear, got %v", err)
	}
}

func TestSessionStore_WrongSecret(t *testing.T) {
	store, _, client := newTestStore(t, "s3cret")
	ctx := context.Background()
	_ = store.Save(ctx, &domain.Session{IDToken: "a"})

	other, err := NewSessionStore(client, "different", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := other.Load(ctx); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestNewSessionStore_EmptySecret(t *testing.T) {
	if _, err := NewSessionStore(nil, "", ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
