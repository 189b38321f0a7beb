// Package redis implements cache.Client on go-redis, for production.
package redis

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/onboard/internal/cache"
)

type client struct {
	c      *rdb.Client
	prefix string
}

// New creates a Redis-backed cache client.
func New(addr string, db int, prefix string) cache.Client {
	return &client{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

func (r *client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *client) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.prefix+key).Err()
}

func (r *client) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *client) Close() error { return r.c.Close() }
