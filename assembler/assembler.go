// Package assembler implements the Result Assembler (spec §4.8): a pure
// function that reshapes a completed job's per-kind agent outputs into the
// final model.Proposal returned to the caller. It performs no I/O and
// mutates nothing it's handed.
//
// Grounded on the teacher's graph.StateMerger concept (graph/graph.go: a
// function combining multiple parallel-branch states into one), generalized
// here from "merge concurrent branch states" to "merge a completed task
// graph's outputs into one document".
package assembler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcusreed/propforge/model"
)

// Assemble builds the final Proposal from req and the Scheduler's
// completed outputs. It requires a TaskAssembly output (the graph's sole
// terminal node) or, failing that, a TaskFormatting output; every other
// kind is read opportunistically so a partial outputs map still produces as
// much of a Proposal as possible. Metadata.PartialSuccess is set when any
// task kind has no output, which job.Facade reaches when a kind with no
// path to assembly (optimizer) fails and the job still completes.
func Assemble(jobID model.JobID, req *model.ProposalRequest, outputs map[model.TaskKind]model.AgentOutput) (*model.Proposal, error) {
	formatted, ok := outputs[model.TaskAssembly]
	if !ok {
		formatted, ok = outputs[model.TaskFormatting]
	}
	if !ok {
		return nil, fmt.Errorf("assembler: neither assembly nor formatting output present")
	}

	var body struct {
		Sections   []model.Section   `json:"sections"`
		References []model.Reference `json:"references"`
	}
	if err := decodeFields(formatted, &body); err != nil {
		return nil, fmt.Errorf("assembler: decoding final document: %w", err)
	}

	var front struct {
		Title string `json:"title"`
	}
	if fm, ok := outputs[model.TaskFrontMatter]; ok {
		_ = decodeFields(fm, &front)
	}

	total := 0
	for i := range body.Sections {
		total += body.Sections[i].RecomputeWordCount()
	}

	involved := make([]model.TaskKind, 0, len(outputs))
	for _, kind := range model.AllTaskKinds {
		if _, ok := outputs[kind]; ok {
			involved = append(involved, kind)
		}
	}

	validation := map[string]any{}
	if qa, ok := outputs[model.TaskQA]; ok {
		var q struct {
			Passed bool     `json:"passed"`
			Issues []string `json:"issues"`
		}
		if err := decodeFields(qa, &q); err == nil {
			validation["qa_passed"] = q.Passed
			validation["qa_issues"] = q.Issues
		}
	}

	partial := len(missingKinds(model.AllTaskKinds, outputs)) > 0

	return &model.Proposal{
		RequestID: jobID,
		Metadata: model.ProposalMetadata{
			Topic:          topicOrTitle(req, front.Title),
			TotalWordCount: total,
			AgentsInvolved: involved,
			PartialSuccess: partial,
		},
		Sections:   body.Sections,
		References: body.References,
		Validation: validation,
	}, nil
}

// Stamp sets AssembledAt to now. Split from Assemble since Assemble must
// stay a pure function over its inputs for testability; callers that want
// a real timestamp call this immediately after Assemble.
func Stamp(p *model.Proposal, now time.Time) {
	p.AssembledAt = now
}

func topicOrTitle(req *model.ProposalRequest, title string) string {
	if req != nil && req.Topic != "" {
		return req.Topic
	}
	return title
}

func missingKinds(all []model.TaskKind, outputs map[model.TaskKind]model.AgentOutput) []model.TaskKind {
	var missing []model.TaskKind
	for _, k := range all {
		if _, ok := outputs[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func decodeFields(out model.AgentOutput, dst any) error {
	raw, err := json.Marshal(out.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
