package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

type methodologyFields struct {
	Text  string   `json:"text"`
	Steps []string `json:"steps"`
}

// MethodologyAgent drafts the research methodology from the introduction.
// Grounded on original_source/src/agents/content_generation/
// research_methodology_agent.py (produces a methodology narrative plus a
// step-by-step research plan).
type MethodologyAgent struct {
	gw *llmgateway.Gateway
}

func NewMethodologyAgent(gw *llmgateway.Gateway) *MethodologyAgent {
	return &MethodologyAgent{gw: gw}
}

func (a *MethodologyAgent) Kind() model.TaskKind { return model.TaskMethodology }

func (a *MethodologyAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskIntroduction)
}

func (a *MethodologyAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	intro, err := depFields[introductionFields](in, model.TaskIntroduction)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("methodology: %w", err)
	}

	textResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are a research methodology expert. Write a methodology section describing the research design, data collection, and analysis approach implied by the introduction. Prose only.",
		Prompt:       fmt.Sprintf("Topic: %s\n\nIntroduction:\n%s", in.Topic, intro.Text),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("methodology: %w", err)
	}
	if strings.TrimSpace(textResp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("methodology: llm gateway returned an empty response"))
	}

	stepsResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "List the research plan as short, ordered steps, one per line.",
		Prompt:       fmt.Sprintf("Methodology:\n%s", textResp.Text),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("methodology: %w", err)
	}
	if strings.TrimSpace(stepsResp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("methodology: llm gateway returned an empty response"))
	}

	fields, err := toFields(methodologyFields{Text: textResp.Text, Steps: splitLines(stepsResp.Text)})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("methodology: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskMethodology, Fields: fields}, nil
}

var _ agent.Agent = (*MethodologyAgent)(nil)
