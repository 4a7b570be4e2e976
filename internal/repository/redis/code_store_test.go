package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/Samdav2/confess-api/internal/core/port"
)

func newTestStore(t *testing.T, ttl time.Duration) (*CodeStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCodeStore(client, "test:verify", ttl), mr
}

func TestRedisCodeStoreConsumeDeletesKey(t *testing.T) {
	store, _ := newTestStore(t, 5*time.Minute)
	ctx := context.Background()

	if err := store.Store(ctx, "Ada@Example.com", "123456", "user-1"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	userID, err := store.CheckAndConsume(ctx, "ada@example.com", "123456")
	if err != nil {
		t.Fatalf("CheckAndConsume returned error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id %q", userID)
	}

	if _, err := store.CheckAndConsume(ctx, "ada@example.com", "123456"); !errors.Is(err, port.ErrCodeNotFound) {
		t.Fatalf("consumed code must not validate twice, got %v", err)
	}
}

func TestRedisCodeStoreMismatchRetainsKey(t *testing.T) {
	store, _ := newTestStore(t, 5*time.Minute)
	ctx := context.Background()

	if err := store.Store(ctx, "ada@example.com", "123456", "user-1"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	if _, err := store.CheckAndConsume(ctx, "ada@example.com", "654321"); !errors.Is(err, port.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}

	if _, err := store.CheckAndConsume(ctx, "ada@example.com", "123456"); err != nil {
		t.Fatalf("retry after mismatch should succeed, got %v", err)
	}
}

func TestRedisCodeStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t, 5*time.Minute)
	ctx := context.Background()

	if err := store.Store(ctx, "ada@example.com", "123456", "user-1"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	mr.FastForward(5*time.Minute + time.Second)

	if _, err := store.CheckAndConsume(ctx, "ada@example.com", "123456"); !errors.Is(err, port.ErrCodeNotFound) {
		t.Fatalf("expired code must report ErrCodeNotFound, got %v", err)
	}
}

func TestRedisCodeStoreOverwriteResetsTTL(t *testing.T) {
	store, mr := newTestStore(t, 5*time.Minute)
	ctx := context.Background()

	if err := store.Store(ctx, "ada@example.com", "111111", "user-1"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	mr.FastForward(4 * time.Minute)

	if err := store.Store(ctx, "ada@example.com", "222222", "user-1"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	mr.FastForward(4 * time.Minute)

	if _, err := store.CheckAndConsume(ctx, "ada@example.com", "111111"); !errors.Is(err, port.ErrCodeMismatch) {
		t.Fatalf("superseded code must not validate, got %v", err)
	}

	userID, err := store.CheckAndConsume(ctx, "ada@example.com", "222222")
	if err != nil {
		t.Fatalf("latest code should be live after TTL reset, got %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id %q", userID)
	}
}
