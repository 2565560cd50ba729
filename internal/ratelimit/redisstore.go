package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the global daily ceiling with a shared counter so
// multiple process instances of the verification service enforce one
// ceiling instead of one per process. Optional: when no address is
// configured the in-process Gate counters are used instead, which is
// correct for a single-instance deployment.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr and verifies reachability.
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ReserveGlobalDaily atomically adds n to today's global counter and
// returns how much of n was actually granted against cap, same
// reserve-then-proceed semantics as the in-process gate.
func (s *RedisStore) ReserveGlobalDaily(ctx context.Context, cap, n int) (reserved int, err error) {
	key := "mailsentinel:global_daily:" + time.Now().UTC().Format("2006-01-02")

	newTotal, err := s.client.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing global daily counter: %w", err)
	}
	s.client.Expire(ctx, key, 25*time.Hour)

	overflow := newTotal - int64(cap)
	if overflow <= 0 {
		return n, nil
	}
	reserved = n - int(overflow)
	if reserved < 0 {
		reserved = 0
	}
	// Give back the portion that pushed us over cap.
	if overflow > 0 {
		s.client.DecrBy(ctx, key, overflow)
	}
	return reserved, nil
}
