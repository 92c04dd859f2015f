package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_preview_cache_hits_total",
		Help: "Preview lookups served from the cache.",
	})
	previewCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_preview_cache_misses_total",
		Help: "Preview lookups that went to the record store.",
	})
)

// PreviewCache keeps rendered previews for hover lookups. Entries expire
// after ttl; the whole cache is purged when records are removed.
type PreviewCache struct {
	cache *expirable.LRU[string, *Preview]
}

func NewPreviewCache(size int, ttl time.Duration) *PreviewCache {
	return &PreviewCache{
		cache: expirable.NewLRU[string, *Preview](size, nil, ttl),
	}
}

func (c *PreviewCache) Get(id string) (*Preview, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		previewCacheHits.Inc()
		return val, true
	}
	previewCacheMisses.Inc()
	return nil, false
}

func (c *PreviewCache) Set(id string, preview *Preview) {
	c.cache.Add(id, preview)
}

func (c *PreviewCache) Purge() {
	c.cache.Purge()
}

func (c *PreviewCache) Len() int {
	return c.cache.Len()
}
