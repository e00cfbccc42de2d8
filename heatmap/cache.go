// ABOUTME: PNG cache for heatmap renders keyed by sha256 of catalog, heatmap, range, and size.
// ABOUTME: Backed by an expirable LRU so entries age out and memory stays bounded; errors are never cached.
package heatmap

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/2389-research/syncview/metrics"
	"github.com/2389-research/syncview/zoom"
)

// Request identifies one PNG render.
type Request struct {
	Catalog string
	Heatmap string
	Range   zoom.ViewRange
	Width   int
	Height  int
}

// RenderFunc produces the PNG bytes for a request.
type RenderFunc func(ctx context.Context, req Request) ([]byte, error)

// Cache wraps a RenderFunc with an LRU of encoded images.
type Cache struct {
	renderFn RenderFunc
	lru      *expirable.LRU[string, []byte]
	metrics  *metrics.Metrics
}

// NewCache keeps at most size entries, each for at most ttl.
func NewCache(renderFn RenderFunc, size int, ttl time.Duration, m *metrics.Metrics) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		renderFn: renderFn,
		lru:      expirable.NewLRU[string, []byte](size, nil, ttl),
		metrics:  m,
	}
}

// Render returns cached bytes when available, otherwise renders and stores.
func (c *Cache) Render(ctx context.Context, req Request) ([]byte, error) {
	key := cacheKey(req)
	if data, ok := c.lru.Get(key); ok {
		c.metrics.CacheLookup("hit")
		return data, nil
	}
	c.metrics.CacheLookup("miss")

	data, err := c.renderFn(ctx, req)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, data)
	return data, nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

func cacheKey(req Request) string {
	raw := fmt.Sprintf("%s\x00%s\x00%v\x00%v\x00%dx%d",
		req.Catalog, req.Heatmap, req.Range.From, req.Range.To, req.Width, req.Height)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}
