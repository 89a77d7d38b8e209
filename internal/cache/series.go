// Package cache holds fetched series for the session with an explicit
// staleness policy.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"Bolsa/internal/model"
)

// SeriesCache stores one series per symbol. Entries are replaced whole and
// live until they expire (ttl > 0), are evicted, or the cache is flushed.
type SeriesCache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewSeriesCache creates a cache. A ttl of zero keeps entries for the session.
func NewSeriesCache(ttl time.Duration) *SeriesCache {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &SeriesCache{
		items: gocache.New(expiration, cleanup),
		ttl:   ttl,
	}
}

// Get returns the cached series for symbol if present and not stale.
func (c *SeriesCache) Get(symbol model.Symbol) (model.TimeSeries, bool) {
	v, ok := c.items.Get(string(symbol))
	if !ok {
		return nil, false
	}
	return v.(model.TimeSeries), true
}

// Set replaces the entry for symbol.
func (c *SeriesCache) Set(symbol model.Symbol, series model.TimeSeries) {
	c.items.SetDefault(string(symbol), series)
}

// Evict drops symbol, e.g. after it leaves the watchlist.
func (c *SeriesCache) Evict(symbol model.Symbol) {
	c.items.Delete(string(symbol))
}

// Flush drops every entry.
func (c *SeriesCache) Flush() {
	c.items.Flush()
}

// Len returns the number of entries, including expired ones not yet cleaned.
func (c *SeriesCache) Len() int {
	return c.items.ItemCount()
}

// Snapshot returns the cached entries for the given symbols.
func (c *SeriesCache) Snapshot(symbols []model.Symbol) model.SymbolSeriesMap {
	out := make(model.SymbolSeriesMap, len(symbols))
	for _, s := range symbols {
		if series, ok := c.Get(s); ok {
			out[s] = series
		}
	}
	return out
}
