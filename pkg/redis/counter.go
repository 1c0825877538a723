package redis

import (
	"context"
	"fmt"
	"time"
)

// IncrWithTTL bumps key and makes sure it expires. The TTL is set on the
// first increment; a later increment that finds no TTL (the EXPIRE after a
// crash never ran) sets it again so the counter cannot live forever.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c.cmd == nil {
		return 0, errNotConnected
	}
	n, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if ttl <= 0 {
		return n, nil
	}
	if n > 1 {
		remaining, err := c.cmd.TTL(ctx, key).Result()
		if err != nil || remaining >= 0 {
			return n, nil
		}
	}
	if err := c.cmd.Expire(ctx, key, ttl).Err(); err != nil {
		return n, fmt.Errorf("expire %s: %w", key, err)
	}
	return n, nil
}

// FixedWindowAllow counts one hit against scope and reports whether it is
// within limit for the current window.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	n, err := c.IncrWithTTL(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return false, 0, err
	}
	return n <= limit, n, nil
}
