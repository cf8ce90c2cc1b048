package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusreed/propforge/agents"
	"github.com/marcusreed/propforge/job"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/orchestrator"
	"github.com/marcusreed/propforge/sources"
	"github.com/marcusreed/propforge/statestore/memory"
)

type stubConnector struct{ papers []model.Paper }

func (s *stubConnector) Name() string                 { return "stub" }
func (s *stubConnector) Health(context.Context) error { return nil }
func (s *stubConnector) Search(context.Context, string, sources.SearchFilters) ([]model.Paper, error) {
	return s.papers, nil
}

func newMockFacade(t *testing.T) *job.Facade {
	t.Helper()
	store := memory.New(time.Minute)
	t.Cleanup(func() { store.Close() })

	gw := llmgateway.New(&llmgateway.MockModel{})
	year := 2022
	connectors := []sources.Connector{&stubConnector{papers: []model.Paper{
		{PaperID: "1", Title: "Machine learning in clinical diagnostics", Year: &year, CitationCount: 12},
	}}}
	registry := agents.BuildRegistry(gw, connectors)

	return job.New(registry, store, orchestrator.Config{MaxParallelTasks: 3}, nil)
}

// TestSubmitHappyPathMockMode implements spec scenario 1: mock LLM, mock
// state store, all eleven agents registered.
func TestSubmitHappyPathMockMode(t *testing.T) {
	t.Parallel()

	f := newMockFacade(t)
	req := &model.ProposalRequest{
		Topic:     "Machine learning in healthcare diagnostics",
		KeyPoints: []string{"diagnostics", "privacy"},
	}

	proposal, err := f.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, proposal)

	assert.NotEmpty(t, proposal.Sections)
	assert.Greater(t, proposal.Metadata.TotalWordCount, 0)
	assert.Len(t, proposal.Metadata.AgentsInvolved, len(model.AllTaskKinds))
}

func TestStartAndStatusReportsCompletion(t *testing.T) {
	t.Parallel()

	f := newMockFacade(t)
	req := &model.ProposalRequest{Topic: "Distributed systems for genomics pipelines"}

	jobID, err := f.Start(req)
	require.NoError(t, err)

	var record *job.Record
	for i := 0; i < 200; i++ {
		r, ok := f.Status(jobID)
		require.True(t, ok)
		if r.Status != job.StatusInProgress {
			record = r
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.NotNil(t, record, "job did not reach a terminal status in time")
	assert.Equal(t, job.StatusCompleted, record.Status)
	assert.NotNil(t, record.Proposal)
}

func TestSubmitRejectsShortTopic(t *testing.T) {
	t.Parallel()

	f := newMockFacade(t)
	_, err := f.Submit(context.Background(), &model.ProposalRequest{Topic: "short"})
	assert.Error(t, err)
}
