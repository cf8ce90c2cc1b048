// Package rediskv implements statestore.Store over Redis, for deployments
// that need the shared scratch prefix to survive a single process. Adapted
// from the teacher's store/redis/redis.go (RedisCheckpointStore): same
// client construction and key-prefixing shape, generalized from
// checkpoint/execution-index records to arbitrary TTL'd byte blobs under the
// job-scoped key layout of spec §4.5/§6.3.
package rediskv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcusreed/propforge/statestore"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key. Defaults to "propforge:".
	Prefix string
}

// Store implements statestore.Store using Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a Store and eagerly constructs (but does not connect) the
// underlying client; connection errors surface on first use or via Ping.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "propforge:"
	}

	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("rediskv: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, statestore.ErrNotFound
		}
		return nil, fmt.Errorf("rediskv: get %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("rediskv: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rediskv: ping: %w", err)
	}
	return nil
}

func (s *Store) Health(ctx context.Context) (statestore.Health, error) {
	if err := s.Ping(ctx); err != nil {
		return statestore.Health{Backend: "redis", OK: false, Detail: err.Error()}, err
	}
	return statestore.Health{Backend: "redis", OK: true}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ statestore.Store = (*Store)(nil)
