package redishold

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/store"
)

func TestRedisIntegration_HoldLifecycle(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("BOOKABLE_TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("BOOKABLE_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping error: %v", err)
	}

	prefix := "bookable_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		iter := rdb.Scan(cleanupCtx, 0, prefix+":*", 0).Iterator()
		for iter.Next(cleanupCtx) {
			_ = rdb.Del(cleanupCtx, iter.Val()).Err()
		}
	})

	s := New(rdb, prefix)

	start := time.Date(2026, 5, 11, 10, 0, 0, 0, time.UTC)
	hold := store.Hold{
		TenantID: "t1",
		Span:     domain.TimeRange{Start: start, End: start.Add(30 * time.Minute)},
	}

	if err := s.Place(ctx, hold, time.Minute); err != nil {
		t.Fatalf("Place error: %v", err)
	}
	if err := s.Place(ctx, hold, time.Minute); err != store.ErrConflict {
		t.Fatalf("duplicate Place err = %v, want %v", err, store.ErrConflict)
	}

	later := store.Hold{
		TenantID: "t1",
		Span:     domain.TimeRange{Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)},
	}
	if err := s.Place(ctx, later, time.Minute); err != nil {
		t.Fatalf("Place error: %v", err)
	}

	active, err := s.ListActive(ctx, "t1", start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("len(active) = %d, want 1", len(active))
	}
	if !active[0].Start.Equal(hold.Span.Start) || !active[0].End.Equal(hold.Span.End) {
		t.Fatalf("span = %v..%v, want %v..%v", active[0].Start, active[0].End, hold.Span.Start, hold.Span.End)
	}

	other, err := s.ListActive(ctx, "t2", start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("t2 sees %d holds, want 0", len(other))
	}

	if err := s.Release(ctx, hold); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if err := s.Release(ctx, hold); err != store.ErrNotFound {
		t.Fatalf("double Release err = %v, want %v", err, store.ErrNotFound)
	}

	active, err = s.ListActive(ctx, "t1", start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("len(active) = %d after release, want 0", len(active))
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
