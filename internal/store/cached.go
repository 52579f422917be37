package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/manash/adhook/pkg/models"
)

// Cached serves ListRecent from memory until the next Insert or until the
// entry expires.
type Cached struct {
	next  Store
	cache *cache.Cache

	mu sync.Mutex
	// epoch advances on every successful insert. A listing read across an
	// insert is returned but not cached.
	epoch uint64
}

var _ Store = (*Cached)(nil)

func NewCached(next Store, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Insert(ctx context.Context, gen *models.Generation) error {
	if err := c.next.Insert(ctx, gen); err != nil {
		return err
	}
	c.mu.Lock()
	c.epoch++
	c.cache.Flush()
	c.mu.Unlock()
	return nil
}

func (c *Cached) ListRecent(ctx context.Context, limit int) ([]*models.Generation, error) {
	key := fmt.Sprintf("recent:%d", limit)
	if v, ok := c.cache.Get(key); ok {
		return v.([]*models.Generation), nil
	}

	c.mu.Lock()
	start := c.epoch
	c.mu.Unlock()

	rows, err := c.next.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.epoch == start {
		c.cache.SetDefault(key, rows)
	}
	c.mu.Unlock()
	return rows, nil
}

func (c *Cached) Migrate(ctx context.Context) error {
	if m, ok := c.next.(Migrator); ok {
		return m.Migrate(ctx)
	}
	return nil
}

func (c *Cached) Close() error {
	c.cache.Flush()
	return c.next.Close()
}
