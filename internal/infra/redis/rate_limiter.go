package redis

import (
	"context"
	"fmt"
	"time"
)

type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow implements a fixed-window counter. The first hit in a window sets the
// expiry; every hit increments.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

func ClientVerifyKey(remoteIP string) string {
	return fmt.Sprintf("rate_limit:verify:%s", remoteIP)
}

func ClientIntentKey(remoteIP string) string {
	return fmt.Sprintf("rate_limit:intent:%s", remoteIP)
}
