package ratelimit

import (
	"context"
	"time"

	"github.com/redis/rueidis"
)

// RedisLimiter shares counters between API replicas. Each window is a key
// created with the window length as its TTL and incremented per hit.
type RedisLimiter struct {
	client rueidis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client rueidis.Client, prefix string, limit int, window time.Duration) (*RedisLimiter, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}, nil
}

// Allow creates the window key with its TTL before incrementing it, so a
// counter never exists without an expiry.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := r.prefix + key

	seconds := int64(r.window / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	results := r.client.DoMulti(ctx,
		r.client.B().Set().Key(k).Value("0").Nx().ExSeconds(seconds).Build(),
		r.client.B().Incr().Key(k).Build(),
	)
	if err := results[0].Error(); err != nil && !rueidis.IsRedisNil(err) {
		return false, err
	}

	count, err := results[1].AsInt64()
	if err != nil {
		return false, err
	}

	return count <= int64(r.limit), nil
}
