package storage

import (
	"context"
	"time"

	"fintracker/internal/cache"
)

type cachedEntry struct {
	key   Key
	data  []byte
	found bool
}

// CachedBackend is a read-through cache in front of another Backend.
// Misses are cached too, so reloading an empty user is cheap.
type CachedBackend struct {
	next  Backend
	lru   *cache.LRUCache[cachedEntry]
	cache cache.Cache[cachedEntry]
}

// NewCachedBackend wraps next with an LRU of size entries living for ttl.
func NewCachedBackend(next Backend, size int, ttl time.Duration) *CachedBackend {
	lru := cache.NewLRUCache[cachedEntry](size, ttl)
	return &CachedBackend{next: next, lru: lru, cache: lru}
}

// Cleaner exposes the LRU so a cache.Manager can sweep expired entries.
func (c *CachedBackend) Cleaner() cache.Cleaner {
	return c.lru
}

func (c *CachedBackend) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if e, ok := c.cache.Get(key.id()); ok {
		return append([]byte(nil), e.data...), e.found, nil
	}
	data, found, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	c.cache.Set(key.id(), cachedEntry{key: key, data: append([]byte(nil), data...), found: found})
	return data, found, nil
}

func (c *CachedBackend) Put(ctx context.Context, key Key, value []byte) error {
	if err := c.next.Put(ctx, key, value); err != nil {
		c.cache.Delete(key.id())
		return err
	}
	c.cache.Set(key.id(), cachedEntry{key: key, data: append([]byte(nil), value...), found: true})
	return nil
}

func (c *CachedBackend) DeleteUser(ctx context.Context, namespace, userID string) error {
	err := c.next.DeleteUser(ctx, namespace, userID)
	c.InvalidateUser(namespace, userID)
	return err
}

// InvalidateUser drops every cached entry of userID and reports how many
// were removed.
func (c *CachedBackend) InvalidateUser(namespace, userID string) int {
	return c.cache.DeleteFunc(func(_ string, e cachedEntry) bool {
		return e.key.Owner(namespace, userID)
	})
}

func (c *CachedBackend) Close() error {
	return c.next.Close()
}

var (
	_ Backend     = (*CachedBackend)(nil)
	_ Invalidator = (*CachedBackend)(nil)
)
