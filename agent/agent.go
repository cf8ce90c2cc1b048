// Package agent defines the abstract worker contract every task-kind
// implementation satisfies, plus the write-once registry the Scheduler
// consults to find an agent for a given TaskKind.
package agent

import (
	"context"

	"github.com/marcusreed/propforge/model"
)

// Agent is a stateless worker implementing one model.TaskKind. Agents MUST
// NOT invoke other agents: fan-in/fan-out happens only through declared
// dependency edges in the task graph (spec §4.1).
type Agent interface {
	// Kind returns the TaskKind this agent was constructed to serve.
	Kind() model.TaskKind

	// Validate is a pure, cheap check that mandatory deps and fields are
	// present and well-typed. It must not perform I/O.
	Validate(in model.AgentInput) error

	// Execute performs the work, optionally calling the LLM Gateway and
	// Source Connectors. Given identical input and identical Gateway
	// responses, Execute is deterministic up to floating-point noise
	// (spec §4.1 determinism contract).
	Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error)
}

// MissingDependencyError is returned by Validate when a declared dependency
// output is absent from AgentInput.DependencyOutputs. Per spec §9 ("Open
// question: partial success"), the canonical graph never tolerates a
// missing dep: validation always fails in that case.
type MissingDependencyError struct {
	Agent   model.TaskKind
	Missing model.TaskKind
}

func (e *MissingDependencyError) Error() string {
	return "agent " + string(e.Agent) + ": missing required dependency output " + string(e.Missing)
}

// RequireDeps validates that every kind in want is present in
// in.DependencyOutputs, returning a MissingDependencyError for the first
// absence found (in the stable model.AllTaskKinds order).
func RequireDeps(self model.TaskKind, in model.AgentInput, want ...model.TaskKind) error {
	wantSet := make(map[model.TaskKind]struct{}, len(want))
	for _, k := range want {
		wantSet[k] = struct{}{}
	}
	for _, k := range model.AllTaskKinds {
		if _, needed := wantSet[k]; !needed {
			continue
		}
		if _, present := in.DependencyOutputs[k]; !present {
			return &MissingDependencyError{Agent: self, Missing: k}
		}
	}
	return nil
}
