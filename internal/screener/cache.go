// internal/screener/cache.go
package screener

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache holds finished reports for a fixed TTL.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// NewCache creates a Cache; maxCost counts entries since every Set costs 1.
func NewCache(maxCost int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e3,
		MaxCost:     maxCost,
		BufferItems: 64,
		// costs are entry counts, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (any, bool) { return c.c.Get(key) }

// Set stores val and waits for the write buffer so the next Get sees it.
func (c *Cache) Set(key string, val any) {
	c.c.SetWithTTL(key, val, 1, c.ttl)
	c.c.Wait()
}

func (c *Cache) Del(key string) { c.c.Del(key) }

func (c *Cache) Close() { c.c.Close() }
