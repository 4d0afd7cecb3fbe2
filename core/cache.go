package core

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by KVCache.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache: key not found")

// KVCache is an expiring key/value store for short-lived app state
// (email verification codes and the like). The default implementation
// is in-process; a multi-instance deployment swaps in a shared store.
type KVCache interface {
	Put(key, value string, ttl time.Duration)
	Get(key string) (string, error)
	Delete(key string)
}
