// Package cachesvc provides the default in-process core.KVCache.
package cachesvc

import (
	"sync"
	"time"

	"github.com/trezcool/dhamira/core"
)

var nowFunc = time.Now // mockable

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-process KVCache. Expired entries are
// dropped lazily on Get; there is no background sweeper.
type MemoryCache struct {
	mutex   sync.Mutex
	entries map[string]entry
}

var _ core.KVCache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Put(key, value string, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = entry{value: value, expiresAt: nowFunc().Add(ttl)}
}

func (c *MemoryCache) Get(key string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", core.ErrCacheMiss
	}
	if nowFunc().After(e.expiresAt) {
		delete(c.entries, key)
		return "", core.ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}
