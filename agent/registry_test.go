package agent

import (
	"context"
	"testing"

	"github.com/marcusreed/propforge/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	kind model.TaskKind
}

func (s stubAgent) Kind() model.TaskKind { return s.kind }
func (s stubAgent) Validate(model.AgentInput) error { return nil }
func (s stubAgent) Execute(context.Context, model.AgentInput) (model.AgentOutput, error) {
	return model.AgentOutput{Kind: s.kind}, nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubAgent{kind: model.TaskLiterature})
	r.Register(stubAgent{kind: model.TaskIntroduction})
	r.Freeze()

	a, ok := r.Lookup(model.TaskLiterature)
	require.True(t, ok)
	assert.Equal(t, model.TaskLiterature, a.Kind())

	_, ok = r.Lookup(model.TaskMethodology)
	assert.False(t, ok)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubAgent{kind: model.TaskQA})
	assert.Panics(t, func() {
		r.Register(stubAgent{kind: model.TaskQA})
	})
}

func TestRegistryRegisterAfterFreezePanics(t *testing.T) {
	t.Parallel()

	r := NewRegistry().Freeze()
	assert.Panics(t, func() {
		r.Register(stubAgent{kind: model.TaskRisk})
	})
}

func TestRegistryMissingFrom(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubAgent{kind: model.TaskLiterature})
	r.Freeze()

	missing := r.MissingFrom([]model.TaskKind{model.TaskLiterature, model.TaskMethodology, model.TaskQA})
	assert.Equal(t, []model.TaskKind{model.TaskMethodology, model.TaskQA}, missing)
}

func TestRequireDeps(t *testing.T) {
	t.Parallel()

	in := model.AgentInput{
		DependencyOutputs: map[model.TaskKind]model.AgentOutput{
			model.TaskLiterature: {Kind: model.TaskLiterature},
		},
	}

	assert.NoError(t, RequireDeps(model.TaskIntroduction, in, model.TaskLiterature))

	err := RequireDeps(model.TaskMethodology, in, model.TaskIntroduction)
	require.Error(t, err)
	var missingErr *MissingDependencyError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, model.TaskIntroduction, missingErr.Missing)
}
