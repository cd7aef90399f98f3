package redis

import (
	"context"
	"testing"
	"time"

	"gemini-gateway/internal/domain/user"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func newTestStore(t *testing.T) (*CacheStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := NewClient(Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if err := Ping(context.Background(), client); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	return NewCacheStore(client, DefaultCacheConfig()), mr
}

func TestSessionRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := user.UserSession{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.SetSession(ctx, s); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if ttl := mr.TTL(sessionKey(s.ID)); ttl != 15*time.Minute {
		t.Fatalf("ttl = %s; want 15m", ttl)
	}

	got, err := store.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil || got.UserID != s.UserID {
		t.Fatalf("GetSession = %+v; want user %s", got, s.UserID)
	}

	if err := store.InvalidateSession(ctx, s.ID); err != nil {
		t.Fatalf("InvalidateSession: %v", err)
	}
	got, err = store.GetSession(ctx, s.ID)
	if err != nil || got != nil {
		t.Fatalf("after invalidate GetSession = %+v, %v; want miss", got, err)
	}
}

func TestSetSessionCapsTTLAtExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := user.UserSession{ID: uuid.New(), UserID: uuid.New(), ExpiresAt: now.Add(2 * time.Minute)}
	if err := store.SetSession(context.Background(), s); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if ttl := mr.TTL(sessionKey(s.ID)); ttl != 2*time.Minute {
		t.Fatalf("ttl = %s; want 2m", ttl)
	}
}

func TestSetSessionSkipsInactive(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	revoked := user.UserSession{ID: uuid.New(), UserID: uuid.New(), IsRevoked: true, ExpiresAt: time.Now().Add(time.Hour)}
	expired := user.UserSession{ID: uuid.New(), UserID: uuid.New(), ExpiresAt: time.Now().Add(-time.Minute)}
	for _, s := range []user.UserSession{revoked, expired} {
		if err := store.SetSession(ctx, s); err != nil {
			t.Fatalf("SetSession: %v", err)
		}
		if mr.Exists(sessionKey(s.ID)) {
			t.Fatalf("inactive session %s was cached", s.ID)
		}
	}
}

func TestUserCache(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	u := user.User{ID: uuid.New(), Email: "a@example.com", Name: "Ada", PasswordHash: "secret"}
	if err := store.SetUser(ctx, u); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	got, err := store.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got == nil || got.Email != u.Email || got.Name != u.Name {
		t.Fatalf("GetUser = %+v", got)
	}

	miss, err := store.GetUser(ctx, uuid.New())
	if err != nil || miss != nil {
		t.Fatalf("GetUser miss = %+v, %v", miss, err)
	}
}
