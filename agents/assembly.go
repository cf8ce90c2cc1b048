package agents

import (
	"context"
	"fmt"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/model"
)

type assemblyFields struct {
	Sections   []model.Section   `json:"sections"`
	References []model.Reference `json:"references"`
	Finalized  bool              `json:"finalized"`
}

// AssemblyAgent is the sole terminal kind of the canonical graph
// (taskgraph.CanonicalDeps has no kind depending on it). It is a
// deterministic, LLM-free pass-through that validates the formatted
// document is complete and marks it finalized; the job.Facade's
// assembler package is what actually builds the returned model.Proposal
// from the full outputs map once the Scheduler reports success.
//
// Grounded on original_source/src/agents/document_structure/
// final_assembly_agent.py (final_assembly_agent combines all prior
// sections into one document and performs a last completeness check).
type AssemblyAgent struct{}

func NewAssemblyAgent() *AssemblyAgent { return &AssemblyAgent{} }

func (a *AssemblyAgent) Kind() model.TaskKind { return model.TaskAssembly }

func (a *AssemblyAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskFormatting)
}

func (a *AssemblyAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	formatted, err := depFields[formattingFields](in, model.TaskFormatting)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("assembly: %w", err)
	}
	if len(formatted.Sections) == 0 {
		return model.AgentOutput{}, fmt.Errorf("assembly: formatted document has no sections")
	}

	fields, err := toFields(assemblyFields{
		Sections:   formatted.Sections,
		References: formatted.References,
		Finalized:  true,
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("assembly: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskAssembly, Fields: fields}, nil
}

var _ agent.Agent = (*AssemblyAgent)(nil)
