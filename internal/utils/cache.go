package utils

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// Cache stores encoded values under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type cacheItem struct {
	Data      []byte
	ExpiresAt time.Time
}

// LocalCache is an in-process LRU cache with per-entry expiry.
type LocalCache struct {
	lruCache *lru.Cache[string, cacheItem]
}

func NewLocalCache(size int) *LocalCache {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		log.WithError(err).Fatal("Failed to create LRU cache")
	}
	return &LocalCache{lruCache: l}
}

var (
	cacheInstance *LocalCache
	cacheOnce     sync.Once
)

// GetCache returns the process-wide local cache.
func GetCache() *LocalCache {
	cacheOnce.Do(func() {
		cacheInstance = NewLocalCache(500)
	})
	return cacheInstance
}

func (c *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get returns the cached value, dropping it when expired.
func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil, false
	}
	return val.Data, true
}

func (c *LocalCache) Delete(_ context.Context, key string) {
	c.lruCache.Remove(key)
}
