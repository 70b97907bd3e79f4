package redishold

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bookable/backend/internal/domain"
	"bookable/backend/internal/store"
)

// Store keeps slot holds in Redis as individually TTL'd keys, so expiry
// needs no sweeper. Key layout: hold:{tenant}:{startUnix}, value endUnix.
type Store struct {
	rdb    *redis.Client
	prefix string
}

func New(rdb *redis.Client, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "hold"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Place(ctx context.Context, hold store.Hold, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	ok, err := s.rdb.SetNX(ctx, s.key(hold), hold.Span.End.Unix(), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrConflict
	}
	return nil
}

func (s *Store) Release(ctx context.Context, hold store.Hold) error {
	deleted, err := s.rdb.Del(ctx, s.key(hold)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context, tenantID string, windowStart, windowEnd time.Time) ([]domain.TimeRange, error) {
	pattern := fmt.Sprintf("%s:%s:*", s.prefix, tenantID)
	window := domain.TimeRange{Start: windowStart, End: windowEnd}

	out := make([]domain.TimeRange, 0)
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.rdb.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				// Expired between SCAN and GET.
				continue
			}
			return nil, err
		}
		span, ok := parseHold(key, val)
		if !ok {
			continue
		}
		if span.Overlaps(window) {
			out = append(out, span)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) key(hold store.Hold) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, hold.TenantID, hold.Span.Start.Unix())
}

func parseHold(key, value string) (domain.TimeRange, bool) {
	idx := strings.LastIndexByte(key, ':')
	if idx < 0 {
		return domain.TimeRange{}, false
	}
	startUnix, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return domain.TimeRange{}, false
	}
	endUnix, err := strconv.ParseInt(value, 10, 64)
	if err != nil || endUnix <= startUnix {
		return domain.TimeRange{}, false
	}
	return domain.TimeRange{
		Start: time.Unix(startUnix, 0).UTC(),
		End:   time.Unix(endUnix, 0).UTC(),
	}, true
}
