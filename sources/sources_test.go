package sources_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/sources"
	"github.com/marcusreed/propforge/statestore/memory"
)

type stubConnector struct {
	name  string
	calls int
	out   []model.Paper
}

func (s *stubConnector) Name() string { return s.name }
func (s *stubConnector) Health(context.Context) error { return nil }
func (s *stubConnector) Search(context.Context, string, sources.SearchFilters) ([]model.Paper, error) {
	s.calls++
	return s.out, nil
}

func TestCacheKeyIsStableAndScopedBySource(t *testing.T) {
	t.Parallel()

	k1 := sources.CacheKey("arxiv", "quantum computing", sources.SearchFilters{MaxResults: 10})
	k2 := sources.CacheKey("arxiv", "quantum computing", sources.SearchFilters{MaxResults: 10})
	k3 := sources.CacheKey("crossref", "quantum computing", sources.SearchFilters{MaxResults: 10})

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestCachingConnectorAvoidsRepeatedCalls(t *testing.T) {
	t.Parallel()

	inner := &stubConnector{name: "arxiv", out: []model.Paper{{PaperID: "1", Title: "A Survey"}}}
	store := memory.New(time.Minute)
	defer store.Close()

	cached := sources.WithCache(inner, store, time.Hour)

	ctx := context.Background()
	papers1, err := cached.Search(ctx, "quantum computing", sources.SearchFilters{})
	require.NoError(t, err)
	papers2, err := cached.Search(ctx, "quantum computing", sources.SearchFilters{})
	require.NoError(t, err)

	assert.Equal(t, papers1, papers2)
	assert.Equal(t, 1, inner.calls, "second search should be served from cache")
}

func TestArxivConnectorSatisfiesInterface(t *testing.T) {
	t.Parallel()

	var _ sources.Connector = sources.NewArxivConnector(1.0 / 3)
	var _ sources.Connector = sources.NewSemanticScholarConnector("", 1)
	var _ sources.Connector = sources.NewCrossrefConnector("propforge@example.com", 2)
	var _ sources.Connector = sources.NewWebFallbackConnector("https://example.com/search?q=%s", 1)
}
