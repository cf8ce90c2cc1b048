package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

type riskFields struct {
	Text  string   `json:"text"`
	Risks []string `json:"risks"`
}

// RiskAgent assesses feasibility risks in the proposed methodology.
// Grounded on original_source/src/agents/advanced/risk_assessment_agent.py
// (identifies technical, resource, and timeline risks with mitigations).
type RiskAgent struct {
	gw *llmgateway.Gateway
}

func NewRiskAgent(gw *llmgateway.Gateway) *RiskAgent {
	return &RiskAgent{gw: gw}
}

func (a *RiskAgent) Kind() model.TaskKind { return model.TaskRisk }

func (a *RiskAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskMethodology)
}

func (a *RiskAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	methodology, err := depFields[methodologyFields](in, model.TaskMethodology)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("risk: %w", err)
	}

	textResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are a research risk assessor. Write a risk assessment section covering technical, resource, and timeline risks in the given methodology, each with a mitigation. Prose only.",
		Prompt:       fmt.Sprintf("Methodology:\n%s", methodology.Text),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("risk: %w", err)
	}
	if strings.TrimSpace(textResp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("risk: llm gateway returned an empty response"))
	}

	listResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "List the distinct risks named in the text as short phrases, one per line.",
		Prompt:       textResp.Text,
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("risk: %w", err)
	}
	if strings.TrimSpace(listResp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("risk: llm gateway returned an empty response"))
	}

	fields, err := toFields(riskFields{Text: textResp.Text, Risks: splitLines(listResp.Text)})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("risk: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskRisk, Fields: fields}, nil
}

var _ agent.Agent = (*RiskAgent)(nil)
