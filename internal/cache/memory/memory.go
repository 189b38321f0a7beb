// Package memory implements cache.Client in-process, for development and
// tests.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/onboard/internal/cache"
)

type client struct {
	c      *gocache.Cache
	prefix string
}

// New creates an in-memory cache client. Keys with no TTL never expire.
func New(prefix string) cache.Client {
	return &client{
		c:      gocache.New(gocache.NoExpiration, time.Minute),
		prefix: prefix,
	}
}

func (m *client) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(m.prefix + key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, cache.ErrNotFound
	}
	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *client) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(m.prefix+key, stored, ttl)
	return nil
}

func (m *client) Delete(_ context.Context, key string) error {
	m.c.Delete(m.prefix + key)
	return nil
}

func (m *client) Ping(context.Context) error { return nil }

func (m *client) Close() error { return nil }
