package gateway

import (
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Invalidator is notified when a container's contents change.
type Invalidator interface {
	Invalidate(container string)
}

// ListCache memoises List results per (container, max). Entries expire after
// ttl and are dropped wholesale for a container on every write through the gateway.
type ListCache struct {
	lru *expirable.LRU[string, []StoredImage]
}

// NewListCache returns a cache holding at most size listings. A non-positive
// ttl disables caching and yields nil, which WithListCache ignores.
func NewListCache(size int, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = 128
	}
	return &ListCache{lru: expirable.NewLRU[string, []StoredImage](size, nil, ttl)}
}

func (c *ListCache) get(container string, max int) ([]StoredImage, bool) {
	images, ok := c.lru.Get(cacheKey(container, max))
	if !ok {
		return nil, false
	}
	return append([]StoredImage{}, images...), true
}

func (c *ListCache) put(container string, max int, images []StoredImage) {
	c.lru.Add(cacheKey(container, max), append([]StoredImage{}, images...))
}

// Invalidate removes every cached listing of container.
func (c *ListCache) Invalidate(container string) {
	prefix := container + "\x00"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

// Len reports the number of cached listings.
func (c *ListCache) Len() int {
	return c.lru.Len()
}

func cacheKey(container string, max int) string {
	return container + "\x00" + strconv.Itoa(max)
}
