package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

// Figure describes a proposed chart/diagram. The agent produces a textual
// spec, not rendered pixels — rendering is an external collaborator per
// spec §1.
type Figure struct {
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

type visualizationFields struct {
	Figures []Figure `json:"figures"`
}

// VisualizationAgent proposes figures/diagrams that would support the
// methodology. Grounded on original_source/src/agents/
// visualization_agent.py (recommends chart types and what each should
// show, without rendering them).
type VisualizationAgent struct {
	gw *llmgateway.Gateway
}

func NewVisualizationAgent(gw *llmgateway.Gateway) *VisualizationAgent {
	return &VisualizationAgent{gw: gw}
}

func (a *VisualizationAgent) Kind() model.TaskKind { return model.TaskVisualization }

func (a *VisualizationAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskMethodology)
}

func (a *VisualizationAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	methodology, err := depFields[methodologyFields](in, model.TaskMethodology)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("visualization: %w", err)
	}

	resp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are a data visualization advisor. Given a methodology, propose 2-4 figures that would clarify it. Answer as one figure per line, formatted exactly as 'Caption: description'.",
		Prompt:       fmt.Sprintf("Methodology:\n%s", methodology.Text),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("visualization: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("visualization: llm gateway returned an empty response"))
	}

	var figures []Figure
	for _, line := range splitLines(resp.Text) {
		caption, description, ok := strings.Cut(line, ":")
		if !ok {
			figures = append(figures, Figure{Caption: line})
			continue
		}
		figures = append(figures, Figure{Caption: strings.TrimSpace(caption), Description: strings.TrimSpace(description)})
	}

	fields, err := toFields(visualizationFields{Figures: figures})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("visualization: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskVisualization, Fields: fields}, nil
}

var _ agent.Agent = (*VisualizationAgent)(nil)
