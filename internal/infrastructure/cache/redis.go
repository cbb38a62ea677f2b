package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	return OpenRedisWithOptions(&redis.Options{Addr: addr, DB: db})
}

// OpenRedisWithOptions connects and pings; the client is closed on failure.
func OpenRedisWithOptions(o *redis.Options) (*redis.Client, error) {
	r := redis.NewClient(o)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, errors.Wrapf(err, "redis ping %s", o.Addr)
	}
	return r, nil
}
