package sources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/statestore"
)

// cachingConnector wraps an inner Connector with read-through caching over
// a statestore.Store, so repeated queries for the same topic across a job
// (or across jobs, since the cache key has no job scope) avoid re-hitting
// the external API. Grounded on base_mcp.py's _get_cached_response /
// _cache_response pair.
type cachingConnector struct {
	inner Connector
	store statestore.Store
	ttl   time.Duration
}

// WithCache wraps a Connector with a caching layer backed by store. ttl
// defaults to one hour if <= 0.
func WithCache(inner Connector, store statestore.Store, ttl time.Duration) Connector {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cachingConnector{inner: inner, store: store, ttl: ttl}
}

func (c *cachingConnector) Name() string { return c.inner.Name() }

func (c *cachingConnector) Health(ctx context.Context) error { return c.inner.Health(ctx) }

func (c *cachingConnector) Search(ctx context.Context, query string, filters SearchFilters) ([]model.Paper, error) {
	key := CacheKey(c.inner.Name(), query, filters)

	if raw, err := statestore.CacheGet(ctx, c.store, key); err == nil {
		var papers []model.Paper
		if jsonErr := json.Unmarshal(raw, &papers); jsonErr == nil {
			return papers, nil
		}
	}

	papers, err := c.inner.Search(ctx, query, filters)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(papers); err == nil {
		_ = statestore.CacheSet(ctx, c.store, key, raw, c.ttl)
	}
	return papers, nil
}
