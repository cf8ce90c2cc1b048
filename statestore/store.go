// Package statestore defines the keyed blob store contract shared across a
// job's agents (spec §4.5): task outputs, agent-to-agent scratch, and the
// source-connector cache all flow through implementations of Store.
//
// The contract is grounded directly on the teacher's checkpoint store
// interface (store/checkpoint.go: Save/Load/List/Delete/Clear), generalized
// from checkpoint-shaped records to arbitrary TTL'd key/value blobs.
package statestore

import (
	"context"
	"fmt"
	"time"
)

// CachePrefix is prepended to keys passed through CacheGet/CacheSet.
const CachePrefix = "cache:"

// Store is a keyed byte/JSON blob store with per-entry TTL. All operations
// are safe for concurrent use. Implementations must provide read-your-writes
// consistency within a single process (spec §4.5).
type Store interface {
	// Set stores value under key with the given TTL. A ttl <= 0 means the
	// entry never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves the value stored under key. It returns ErrNotFound if
	// the key is absent or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Health returns backend-specific diagnostic details.
	Health(ctx context.Context) (Health, error)
}

// Health is returned by Store.Health.
type Health struct {
	Backend string `json:"backend"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

// ErrNotFound is returned by Get when a key is absent or expired.
var ErrNotFound = fmt.Errorf("statestore: key not found")

// CacheGet is a convenience wrapper prefixing key with CachePrefix.
func CacheGet(ctx context.Context, s Store, key string) ([]byte, error) {
	return s.Get(ctx, CachePrefix+key)
}

// CacheSet is a convenience wrapper prefixing key with CachePrefix.
func CacheSet(ctx context.Context, s Store, key string, value []byte, ttl time.Duration) error {
	return s.Set(ctx, CachePrefix+key, value, ttl)
}

// TaskOutputKey builds the authoritative agent-output key: job:{id}:task:{kind}.
func TaskOutputKey(jobID, kind string) string {
	return fmt.Sprintf("job:%s:task:%s", jobID, kind)
}

// SharedScratchKey builds an agent-to-agent scratch key:
// job:{id}:shared:{name}. Discouraged in favor of declared dependencies
// (spec §4.5); present for agents that need an advisory cache.
func SharedScratchKey(jobID, name string) string {
	return fmt.Sprintf("job:%s:shared:%s", jobID, name)
}
