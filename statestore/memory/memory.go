// Package memory implements statestore.Store with an in-process map plus a
// background janitor goroutine that evicts expired entries. It is the
// default backend for tests and single-node deployments (spec §4.5), and the
// one forced by the PROPFORGE_FORCE_MEMORY_STORE environment toggle.
//
// The shape of its operations (save/load/delete, missing-key errors,
// overwrite-replaces semantics) is adapted from the teacher's
// store/memory/memory_test.go, which specifies those semantics for a
// checkpoint-shaped store that the retrieval pack otherwise left
// unimplemented; here they are generalized to TTL'd byte blobs.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/marcusreed/propforge/statestore"
)

type entry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Store is an in-memory statestore.Store.
type Store struct {
	mu      sync.RWMutex
	data    map[string]entry
	closeCh chan struct{}
	closeOnce sync.Once
}

// New creates a Store and starts its janitor goroutine, which sweeps expired
// entries every sweepInterval. Callers should call Close when done to stop
// the goroutine.
func New(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &Store{
		data:    make(map[string]entry),
		closeCh: make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.closeCh:
			return
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
		}
	}
}

// Close stops the janitor goroutine. Safe to call multiple times.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	e := entry{value: cp}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return nil, statestore.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Health(context.Context) (statestore.Health, error) {
	s.mu.RLock()
	n := len(s.data)
	s.mu.RUnlock()
	return statestore.Health{Backend: "memory", OK: true, Detail: keyCountDetail(n)}, nil
}

func keyCountDetail(n int) string {
	if n == 1 {
		return "1 key"
	}
	return strconv.Itoa(n) + " keys"
}

var _ statestore.Store = (*Store)(nil)
