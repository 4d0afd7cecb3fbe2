package cachesvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/dhamira/core"
)

func TestMemoryCache(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	now := time.Now()
	nowFunc = func() time.Time { return now }

	cache := NewMemoryCache()

	t.Run("missing key", func(t *testing.T) {
		_, err := cache.Get("nope")
		assert.Equal(t, core.ErrCacheMiss, err)
	})

	t.Run("put and get", func(t *testing.T) {
		cache.Put("code", "123456", 10*time.Minute)
		val, err := cache.Get("code")
		assert.NoError(t, err)
		assert.Equal(t, "123456", val)
	})

	t.Run("expired key", func(t *testing.T) {
		cache.Put("short", "val", time.Minute)
		now = now.Add(2 * time.Minute)
		_, err := cache.Get("short")
		assert.Equal(t, core.ErrCacheMiss, err)
	})

	t.Run("put overwrites and resets TTL", func(t *testing.T) {
		cache.Put("code", "654321", 10*time.Minute)
		val, err := cache.Get("code")
		assert.NoError(t, err)
		assert.Equal(t, "654321", val)
	})

	t.Run("delete", func(t *testing.T) {
		cache.Put("gone", "val", time.Minute)
		cache.Delete("gone")
		_, err := cache.Get("gone")
		assert.Equal(t, core.ErrCacheMiss, err)
	})
}
