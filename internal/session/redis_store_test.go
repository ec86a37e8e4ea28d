package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"tablecraft/api/internal/store"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreWithClient(client), mr
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	rs, _ := newTestStore(t)
	ctx := context.Background()

	user := store.User{ID: "user-1", DisplayName: "Avery", Email: "avery@example.com"}
	err := rs.SaveRefreshSession(ctx, "hash-1", user, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}

	got, err := rs.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession: %v", err)
	}
	if got.ID != "user-1" || got.DisplayName != "Avery" || got.Email != "avery@example.com" {
		t.Fatalf("user = %+v", got)
	}
}

func TestLookupUnknownTokenFails(t *testing.T) {
	rs, _ := newTestStore(t)

	if _, err := rs.LookupRefreshSession(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	rs, _ := newTestStore(t)
	ctx := context.Background()

	user := store.User{ID: "user-1"}
	if err := rs.SaveRefreshSession(ctx, "hash-1", user, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}
	if err := rs.RevokeRefreshSession(ctx, "hash-1"); err != nil {
		t.Fatalf("RevokeRefreshSession: %v", err)
	}
	if _, err := rs.LookupRefreshSession(ctx, "hash-1"); err == nil {
		t.Fatal("expected error after revoke")
	}
}

func TestSessionExpiresWithTTL(t *testing.T) {
	rs, mr := newTestStore(t)
	ctx := context.Background()

	user := store.User{ID: "user-1"}
	if err := rs.SaveRefreshSession(ctx, "hash-1", user, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := rs.LookupRefreshSession(ctx, "hash-1"); err == nil {
		t.Fatal("expected error after TTL elapsed")
	}
}
