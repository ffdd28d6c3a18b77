package scraper

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of pages kept when no size is given.
const DefaultCacheSize = 256

// sharedFetchTimeout bounds a fetch that outlives the caller that started it.
const sharedFetchTimeout = time.Minute

// PageCache keeps raw response bodies by URL and collapses concurrent
// fetches of the same URL into one request. Failed fetches are not cached.
type PageCache struct {
	pages *lru.Cache[string, []byte]
	group singleflight.Group
}

// NewPageCache returns a cache holding at most size pages.
func NewPageCache(size int) *PageCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	pages, _ := lru.New[string, []byte](size)
	return &PageCache{pages: pages}
}

// Get returns the cached body for key or calls fetch to fill it. The
// fetch is shared by every concurrent caller, so it runs detached from
// ctx; each caller still stops waiting when its own ctx is done.
func (c *PageCache) Get(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok := c.pages.Get(key); ok {
		return body, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		body, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.pages.Add(key, body)
		return body, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len is the number of cached pages.
func (c *PageCache) Len() int { return c.pages.Len() }

// Purge drops every cached page.
func (c *PageCache) Purge() { c.pages.Purge() }
