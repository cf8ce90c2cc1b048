// Package sources implements Source Connectors: adapters over external
// academic databases (and a generic web fallback) that the literature
// agent calls to gather candidate papers (spec §4.7).
//
// The Connector contract (search/health, a cache key hashed from
// query+filters, and a per-server token-bucket rate limit) is grounded on
// the original Python implementation's src/mcp_servers/base_mcp.py
// (BaseMCPServer: _generate_cache_key, _check_rate_limit,
// search_papers/get_paper_details/health_check), reworked into Go
// interfaces and golang.org/x/time/rate. Connector has no per-paper
// details lookup by ID; only Search and Health are provided.
package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/marcusreed/propforge/model"
)

// SearchFilters narrows a Connector.Search call. Zero values mean
// "unfiltered".
type SearchFilters struct {
	MaxResults int
	FromYear   int
	ToYear     int
}

// Connector is one academic-database (or web-search) adapter.
type Connector interface {
	// Name identifies the connector for logging and cache-key namespacing.
	Name() string

	// Search returns candidate papers matching query.
	Search(ctx context.Context, query string, filters SearchFilters) ([]model.Paper, error)

	// Health reports whether the backing service is currently reachable.
	Health(ctx context.Context) error
}

// CacheKey builds the deterministic cache key for a query against a named
// connector, matching the state store's cache: prefix convention (spec
// §4.5, §6.3: cache:{sha256(query|filters|source)}).
func CacheKey(source, query string, filters SearchFilters) string {
	payload, _ := json.Marshal(struct {
		Query   string
		Filters SearchFilters
		Source  string
	}{Query: query, Filters: filters, Source: source})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ErrSourceUnavailable wraps a connector-specific failure so the literature
// agent can distinguish "this one source is down" from a malformed request.
type ErrSourceUnavailable struct {
	Source string
	Err    error
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *ErrSourceUnavailable) Unwrap() error { return e.Err }
