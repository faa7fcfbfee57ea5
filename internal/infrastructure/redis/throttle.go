package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rl:"

// Throttle is a fixed-window attempt counter shared by every API instance.
type Throttle struct {
	client *redis.Client
}

func NewThrottle(client *redis.Client) *Throttle {
	return &Throttle{client: client}
}

// Allow records one attempt for key and reports whether it is within limit
// for the current window. The window starts at the first attempt. INCR and
// EXPIRE NX run in one transaction, so a counter left without a TTL gets one
// on the next attempt.
func (t *Throttle) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := keyPrefix + key
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count %s: %w", k, err)
	}
	return incr.Val() <= int64(limit), nil
}
