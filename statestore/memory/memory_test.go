package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcusreed/propforge/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "job:1:task:literature", []byte(`{"kind":"literature"}`), time.Hour))

	got, err := s.Get(ctx, "job:1:task:literature")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"literature"}`, string(got))
}

func TestStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()

	_, err := s.Get(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, statestore.ErrNotFound))
}

func TestStoreOverwriteReplaces(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), 0))
	require.NoError(t, s.Set(ctx, "k", []byte("v2"), 0))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "keep", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "delete-me", []byte("2"), 0))

	require.NoError(t, s.Delete(ctx, "delete-me"))

	_, err := s.Get(ctx, "delete-me")
	assert.ErrorIs(t, err, statestore.ErrNotFound)

	_, err = s.Get(ctx, "keep")
	assert.NoError(t, err)
}

func TestStoreDeleteMissingIsNoop(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()

	assert.NoError(t, s.Delete(context.Background(), "never-existed"))
}

func TestStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ephemeral", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Get(ctx, "ephemeral")
	assert.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestStoreZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "forever", []byte("v"), 0))
	time.Sleep(10 * time.Millisecond)

	got, err := s.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestStoreReadYourWrites(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Set(ctx, "rw", []byte{byte(i)}, 0))
		got, err := s.Get(ctx, "rw")
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, got)
	}
}

func TestStorePingAndHealth(t *testing.T) {
	t.Parallel()

	s := New(time.Minute)
	defer s.Close()
	ctx := context.Background()

	assert.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	health, err := s.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.Equal(t, "memory", health.Backend)
}

var _ statestore.Store = (*Store)(nil)
