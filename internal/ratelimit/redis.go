package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared by every instance using the same
// Redis. It allows bursting at window edges.
type Redis struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRedis allows max requests per window for each key.
func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	return &Redis{client: client, prefix: "ratelimit", max: int64(max), window: window, now: time.Now}
}

func (r *Redis) Check(ctx context.Context, key string) (bool, error) {
	iv := r.now().UnixNano() / int64(r.window)
	k := r.prefix + ":" + key + ":" + strconv.FormatInt(iv, 16)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= r.max, nil
}
