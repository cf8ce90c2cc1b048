// Package model defines the wire- and graph-level data types shared by every
// component of the orchestration core: task kinds, the task graph, the
// proposal request/response shapes, and the literature record format.
package model

// TaskKind identifies an agent role. The set is closed and known at build
// time; adding a new kind requires adding it here and to the canonical
// dependency table in taskgraph.CanonicalDeps.
type TaskKind string

const (
	TaskLiterature   TaskKind = "literature"
	TaskIntroduction TaskKind = "introduction"
	TaskMethodology  TaskKind = "methodology"
	TaskRisk         TaskKind = "risk"
	TaskOptimizer    TaskKind = "optimizer"
	TaskVisualization TaskKind = "visualization"
	TaskQA           TaskKind = "qa"
	TaskReferences   TaskKind = "references"
	TaskFrontMatter  TaskKind = "front_matter"
	TaskFormatting   TaskKind = "formatting"
	TaskAssembly     TaskKind = "assembly"
)

// AllTaskKinds lists every closed-set task kind, in a stable order useful for
// deterministic iteration (e.g. metadata.agents_involved).
var AllTaskKinds = []TaskKind{
	TaskLiterature,
	TaskIntroduction,
	TaskMethodology,
	TaskRisk,
	TaskOptimizer,
	TaskVisualization,
	TaskQA,
	TaskReferences,
	TaskFrontMatter,
	TaskFormatting,
	TaskAssembly,
}

func (k TaskKind) String() string { return string(k) }

// IsDeterministicAssembly reports whether a kind is a purely deterministic
// assembly-stage kind, which per spec defaults to zero retries.
func (k TaskKind) IsDeterministicAssembly() bool {
	return k == TaskAssembly || k == TaskFormatting
}
