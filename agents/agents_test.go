package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusreed/propforge/agents"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/sources"
)

type stubConnector struct {
	name string
	out  []model.Paper
}

func (s *stubConnector) Name() string { return s.name }
func (s *stubConnector) Health(context.Context) error { return nil }
func (s *stubConnector) Search(context.Context, string, sources.SearchFilters) ([]model.Paper, error) {
	return s.out, nil
}

func newMockGateway() *llmgateway.Gateway {
	return llmgateway.New(&llmgateway.MockModel{})
}

func TestLiteratureAgentDedupesAcrossConnectors(t *testing.T) {
	t.Parallel()

	year := 2021
	a := agents.NewLiteratureAgent(newMockGateway(), []sources.Connector{
		&stubConnector{name: "arxiv", out: []model.Paper{{PaperID: "1", Title: "Deep Learning Surveys", Year: &year, CitationCount: 10}}},
		&stubConnector{name: "crossref", out: []model.Paper{{PaperID: "2", Title: "deep   learning surveys", Year: &year, CitationCount: 50}}},
	}, 0, 0)

	out, err := a.Execute(context.Background(), model.AgentInput{Topic: "deep learning for proposal generation"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskLiterature, out.Kind)

	papers, ok := out.Fields["papers"].([]any)
	require.True(t, ok)
	require.Len(t, papers, 1, "duplicate titles across connectors should merge into one record")
}

func TestLiteratureAgentFailsWhenEverySourceFails(t *testing.T) {
	t.Parallel()

	a := agents.NewLiteratureAgent(newMockGateway(), []sources.Connector{
		&failingConnector{},
	}, 0, 0)

	_, err := a.Execute(context.Background(), model.AgentInput{Topic: "deep learning for proposal generation"})
	assert.Error(t, err)
}

type failingConnector struct{}

func (f *failingConnector) Name() string                    { return "broken" }
func (f *failingConnector) Health(context.Context) error    { return nil }
func (f *failingConnector) Search(context.Context, string, sources.SearchFilters) ([]model.Paper, error) {
	return nil, assertErr("source down")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestReferencesAgentFormatsCitations(t *testing.T) {
	t.Parallel()

	year := 2019
	in := model.AgentInput{
		DependencyOutputs: map[model.TaskKind]model.AgentOutput{
			model.TaskLiterature: {
				Kind: model.TaskLiterature,
				Fields: map[string]any{
					"papers": []model.Paper{
						{Title: "Graph Neural Networks", Authors: []string{"Ada Lovelace"}, Year: &year, Venue: "NeurIPS", DOI: "10.1/abc"},
					},
				},
			},
		},
	}

	out, err := agents.NewReferencesAgent().Execute(context.Background(), in)
	require.NoError(t, err)

	refs, ok := out.Fields["references"].([]any)
	require.True(t, ok)
	require.Len(t, refs, 1)
	ref := refs[0].(map[string]any)
	assert.Contains(t, ref["formatted"], "Graph Neural Networks")
	assert.Contains(t, ref["formatted"], "doi.org/10.1/abc")
}

func TestFormattingAgentOrdersSections(t *testing.T) {
	t.Parallel()

	in := model.AgentInput{
		DependencyOutputs: map[model.TaskKind]model.AgentOutput{
			model.TaskFrontMatter:   {Fields: map[string]any{"title": "A Proposal", "abstract": "An abstract."}},
			model.TaskIntroduction:  {Fields: map[string]any{"text": "intro text"}},
			model.TaskLiterature:    {Fields: map[string]any{"summary": "lit summary"}},
			model.TaskMethodology:   {Fields: map[string]any{"text": "methodology text"}},
			model.TaskVisualization: {Fields: map[string]any{"figures": []agents.Figure{{Caption: "Fig 1", Description: "desc"}}}},
			model.TaskRisk:          {Fields: map[string]any{"text": "risk text"}},
			model.TaskReferences:    {Fields: map[string]any{"references": []model.Reference{}}},
			model.TaskQA:            {Fields: map[string]any{"passed": true}},
		},
	}

	out, err := agents.NewFormattingAgent().Execute(context.Background(), in)
	require.NoError(t, err)

	sections, ok := out.Fields["sections"].([]any)
	require.True(t, ok)
	require.Len(t, sections, len(model.SectionOrder))

	intro := sections[1].(map[string]any)
	assert.Equal(t, "Introduction", intro["title"])
}

func TestAssemblyAgentRejectsEmptySections(t *testing.T) {
	t.Parallel()

	in := model.AgentInput{
		DependencyOutputs: map[model.TaskKind]model.AgentOutput{
			model.TaskFormatting: {Fields: map[string]any{"sections": []model.Section{}}},
		},
	}

	_, err := agents.NewAssemblyAgent().Execute(context.Background(), in)
	assert.Error(t, err)
}
