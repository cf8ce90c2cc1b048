package model

import "fmt"

// ProposalRequest is the job-intake payload (spec §3).
type ProposalRequest struct {
	Topic        string         `json:"topic"`
	KeyPoints    []string       `json:"key_points"`
	Preferences  map[string]any `json:"preferences"`
	Author       string         `json:"author,omitempty"`
	Institution  string         `json:"institution,omitempty"`
	Department   string         `json:"department,omitempty"`
}

// MinTopicLength is the minimum accepted length of ProposalRequest.Topic.
const MinTopicLength = 10

// Validate enforces the boundary behaviors of spec §8: topic length and a
// non-nil key_points list (an empty list is accepted).
func (r *ProposalRequest) Validate() error {
	if len(r.Topic) < MinTopicLength {
		return fmt.Errorf("topic must be at least %d characters, got %d", MinTopicLength, len(r.Topic))
	}
	if r.KeyPoints == nil {
		r.KeyPoints = []string{}
	}
	if r.Preferences == nil {
		r.Preferences = map[string]any{}
	}
	return nil
}

// MaxParallelTasks reads preferences["max_parallel_tasks"], defaulting to 3.
func (r *ProposalRequest) MaxParallelTasks() int {
	if v, ok := r.Preferences["max_parallel_tasks"]; ok {
		switch n := v.(type) {
		case int:
			if n > 0 {
				return n
			}
		case float64:
			if n > 0 {
				return int(n)
			}
		}
	}
	return 3
}

// AgentOutput is the free-form, per-kind output blob produced by an agent.
// It is opaque to the Scheduler; only Agents and the Result Assembler
// interpret its Fields by kind.
type AgentOutput struct {
	Kind   TaskKind       `json:"kind"`
	Fields map[string]any `json:"fields"`
}

// AgentInput is the view handed to an agent: the original request plus
// exactly the outputs of its declared dependencies.
type AgentInput struct {
	Topic             string
	KeyPoints         []string
	Preferences       map[string]any
	Author            string
	Institution       string
	Department        string
	DependencyOutputs map[TaskKind]AgentOutput
}
