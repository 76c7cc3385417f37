package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the page cache backend.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry of this store.
	Clear(ctx context.Context) error
}

// NewStore picks Redis when a client is available, memory otherwise.
func NewStore(rdb *redis.Client) Store {
	if rdb == nil {
		return NewMemoryStore()
	}
	return NewRedisStore(rdb, DefaultPrefix)
}
