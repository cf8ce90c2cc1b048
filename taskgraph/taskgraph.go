// Package taskgraph constructs and validates the DAG of task nodes for a
// job. Construction mirrors the teacher's StateGraph.Compile() validation
// style (graph/graph.go, graph/state_graph.go) generalized from a linear
// edge list to a full dependency DAG.
package taskgraph

import (
	"errors"
	"fmt"

	"github.com/marcusreed/propforge/model"
)

// ErrCycle is returned when the canonical dependency table (a build-time
// constant) contains a cycle. This should never happen in practice; it
// exists so a future change to CanonicalDeps fails fast instead of
// deadlocking the Scheduler.
var ErrCycle = errors.New("taskgraph: dependency cycle detected")

// ErrMissingAgent is returned by Build when the supplied registry lacks an
// agent for a task kind the canonical graph requires.
type ErrMissingAgent struct {
	Kind model.TaskKind
}

func (e *ErrMissingAgent) Error() string {
	return fmt.Sprintf("taskgraph: no agent registered for required kind %q", e.Kind)
}

// CanonicalDeps is the hard graph for this domain (spec §4.3): every
// TaskKind's direct dependencies.
var CanonicalDeps = map[model.TaskKind][]model.TaskKind{
	model.TaskLiterature:    {},
	model.TaskIntroduction:  {model.TaskLiterature},
	model.TaskMethodology:   {model.TaskIntroduction},
	model.TaskRisk:          {model.TaskMethodology},
	model.TaskOptimizer:     {model.TaskMethodology, model.TaskIntroduction},
	model.TaskVisualization: {model.TaskMethodology},
	model.TaskQA: {
		model.TaskIntroduction, model.TaskLiterature, model.TaskMethodology, model.TaskRisk,
	},
	model.TaskReferences:  {model.TaskLiterature},
	model.TaskFrontMatter: {model.TaskIntroduction, model.TaskLiterature, model.TaskMethodology, model.TaskVisualization},
	model.TaskFormatting: {
		model.TaskFrontMatter, model.TaskIntroduction, model.TaskLiterature, model.TaskMethodology,
		model.TaskVisualization, model.TaskRisk, model.TaskReferences, model.TaskQA,
	},
	model.TaskAssembly: {model.TaskFormatting},
}

// RegistryLookup is the minimal surface taskgraph needs from agent.Registry,
// kept narrow here to avoid an import cycle between taskgraph and agent.
type RegistryLookup interface {
	Has(kind model.TaskKind) bool
}

// Build constructs a validated TaskGraph for a job from the canonical
// dependency table, failing fast with a structured error if any kind the
// graph needs has no registered agent (spec §4.2: missing registration is
// a construction-time failure).
func Build(job model.JobID, reg RegistryLookup) (*model.TaskGraph, error) {
	if err := validateAcyclic(); err != nil {
		return nil, err
	}

	for kind := range CanonicalDeps {
		if !reg.Has(kind) {
			return nil, &ErrMissingAgent{Kind: kind}
		}
	}

	g := &model.TaskGraph{
		JobID: job,
		Nodes: make(map[model.TaskKind]*model.TaskNode, len(CanonicalDeps)),
	}
	for kind, deps := range CanonicalDeps {
		depSet := make(map[model.TaskKind]struct{}, len(deps))
		for _, d := range deps {
			if _, ok := CanonicalDeps[d]; !ok {
				return nil, fmt.Errorf("taskgraph: kind %q depends on unknown kind %q", kind, d)
			}
			depSet[d] = struct{}{}
		}
		status := model.StatusPending
		if len(depSet) == 0 {
			status = model.StatusReady
		}
		g.Nodes[kind] = &model.TaskNode{
			ID:     model.NewTaskID(job, kind),
			Kind:   kind,
			Deps:   depSet,
			Status: status,
		}
	}
	return g, nil
}

// validateAcyclic runs a DFS over CanonicalDeps and rejects cycles. Also
// enforces that literature is the sole root (spec §4.3 invariant c).
func validateAcyclic() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[model.TaskKind]int, len(CanonicalDeps))

	var visit func(model.TaskKind) error
	visit = func(k model.TaskKind) error {
		color[k] = gray
		for _, dep := range CanonicalDeps[k] {
			switch color[dep] {
			case gray:
				return fmt.Errorf("%w: %s -> %s", ErrCycle, k, dep)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[k] = black
		return nil
	}

	for k := range CanonicalDeps {
		if color[k] == white {
			if err := visit(k); err != nil {
				return err
			}
		}
	}

	var roots []model.TaskKind
	for k, deps := range CanonicalDeps {
		if len(deps) == 0 {
			roots = append(roots, k)
		}
	}
	if len(roots) != 1 || roots[0] != model.TaskLiterature {
		return fmt.Errorf("taskgraph: expected literature as the sole root, found roots %v", roots)
	}
	return nil
}
