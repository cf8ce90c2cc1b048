package assembler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusreed/propforge/assembler"
	"github.com/marcusreed/propforge/model"
)

func TestAssembleBuildsProposalFromAssemblyOutput(t *testing.T) {
	t.Parallel()

	jobID := model.NewJobID()
	outputs := map[model.TaskKind]model.AgentOutput{
		model.TaskFrontMatter: {Fields: map[string]any{"title": "A Great Proposal"}},
		model.TaskQA:          {Fields: map[string]any{"passed": true, "issues": []string{}}},
		model.TaskAssembly: {
			Fields: map[string]any{
				"sections": []model.Section{
					{Title: "Introduction", Content: "one two three"},
					{Title: "Methodology", Content: "four five"},
				},
				"references": []model.Reference{{Title: "Some Paper"}},
			},
		},
	}

	req := &model.ProposalRequest{Topic: "quantum error correction advances"}
	proposal, err := assembler.Assemble(jobID, req, outputs)
	require.NoError(t, err)

	assert.Equal(t, jobID, proposal.RequestID)
	assert.Equal(t, "quantum error correction advances", proposal.Metadata.Topic)
	assert.Equal(t, 5, proposal.Metadata.TotalWordCount)
	assert.Len(t, proposal.Sections, 2)
	assert.Len(t, proposal.References, 1)
	assert.Equal(t, true, proposal.Validation["qa_passed"])
	assert.True(t, proposal.Metadata.PartialSuccess, "outputs map is missing most kinds in this fixture")
}

func TestAssembleFailsWithoutFormattedDocument(t *testing.T) {
	t.Parallel()

	_, err := assembler.Assemble(model.NewJobID(), &model.ProposalRequest{}, map[model.TaskKind]model.AgentOutput{})
	assert.Error(t, err)
}

func TestAssembleFallsBackToFrontMatterTitleWhenTopicEmpty(t *testing.T) {
	t.Parallel()

	outputs := map[model.TaskKind]model.AgentOutput{
		model.TaskFrontMatter: {Fields: map[string]any{"title": "Fallback Title"}},
		model.TaskFormatting: {
			Fields: map[string]any{
				"sections":   []model.Section{{Title: "Introduction", Content: "hi"}},
				"references": []model.Reference{},
			},
		},
	}

	proposal, err := assembler.Assemble(model.NewJobID(), &model.ProposalRequest{}, outputs)
	require.NoError(t, err)
	assert.Equal(t, "Fallback Title", proposal.Metadata.Topic)
}
