package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

type qaFields struct {
	Passed bool     `json:"passed"`
	Issues []string `json:"issues"`
}

// QAAgent reviews the drafted sections for coherence and flags issues. It
// is advisory-only per spec §9's resolved Open Question: a failed review
// does not spawn a revise_* task, it only annotates the final document
// (consumed by formatting/assembly as a validation note).
//
// Grounded on original_source/src/agents/quality_assurance/qa_agent.py
// (checks consistency between introduction, literature, methodology, and
// risk sections; returns pass/fail plus a list of issues).
type QAAgent struct {
	gw *llmgateway.Gateway
}

func NewQAAgent(gw *llmgateway.Gateway) *QAAgent {
	return &QAAgent{gw: gw}
}

func (a *QAAgent) Kind() model.TaskKind { return model.TaskQA }

func (a *QAAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskIntroduction, model.TaskLiterature, model.TaskMethodology, model.TaskRisk)
}

func (a *QAAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	intro, err := depFields[introductionFields](in, model.TaskIntroduction)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("qa: %w", err)
	}
	lit, err := depFields[literatureFields](in, model.TaskLiterature)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("qa: %w", err)
	}
	methodology, err := depFields[methodologyFields](in, model.TaskMethodology)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("qa: %w", err)
	}
	risk, err := depFields[riskFields](in, model.TaskRisk)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("qa: %w", err)
	}

	resp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are a proposal quality reviewer. Check the four sections below for internal consistency (does the methodology address the introduction's objectives, does it engage the cited literature, are the stated risks plausible). List each problem found, one per line. If there are no problems, respond with exactly 'OK'.",
		Prompt: fmt.Sprintf(
			"Introduction:\n%s\n\nLiterature summary:\n%s\n\nMethodology:\n%s\n\nRisks:\n%s",
			intro.Text, lit.Summary, methodology.Text, risk.Text,
		),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("qa: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("qa: llm gateway returned an empty response"))
	}

	issues := splitLines(resp.Text)
	passed := len(issues) == 0 || (len(issues) == 1 && issues[0] == "OK")
	if passed {
		issues = nil
	}

	fields, err := toFields(qaFields{Passed: passed, Issues: issues})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("qa: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskQA, Fields: fields}, nil
}

var _ agent.Agent = (*QAAgent)(nil)
