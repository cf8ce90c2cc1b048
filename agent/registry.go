package agent

import (
	"fmt"

	"github.com/marcusreed/propforge/model"
)

// Registry is a write-once (per job) mapping from TaskKind to an agent
// instance. It is read-only after Freeze, matching the resource model's
// "Agent Registry is read-only after initialization" guarantee (spec §5).
type Registry struct {
	agents map[model.TaskKind]Agent
	frozen bool
}

// NewRegistry creates an empty, mutable Registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[model.TaskKind]Agent)}
}

// Register adds an agent for its declared Kind. It panics if called after
// Freeze or if a kind is registered twice, since both are programmer errors
// caught at construction time, not runtime failures.
func (r *Registry) Register(a Agent) {
	if r.frozen {
		panic("agent: cannot register into a frozen registry")
	}
	if _, exists := r.agents[a.Kind()]; exists {
		panic(fmt.Sprintf("agent: duplicate registration for kind %q", a.Kind()))
	}
	r.agents[a.Kind()] = a
}

// Freeze marks the registry read-only. Subsequent Register calls panic.
func (r *Registry) Freeze() *Registry {
	r.frozen = true
	return r
}

// Lookup returns the agent registered for kind, or (nil, false) if none was
// registered. Missing registration for a kind required by the task graph is
// a construction-time failure of the graph, not a runtime failure (spec
// §4.2) — callers building a TaskGraph should use Lookup to fail fast.
func (r *Registry) Lookup(kind model.TaskKind) (Agent, bool) {
	a, ok := r.agents[kind]
	return a, ok
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind model.TaskKind) bool {
	_, ok := r.agents[kind]
	return ok
}

// MissingFrom reports which of the given kinds have no registered agent, in
// stable order.
func (r *Registry) MissingFrom(kinds []model.TaskKind) []model.TaskKind {
	var missing []model.TaskKind
	for _, k := range kinds {
		if !r.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}
