package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

type optimizerFields struct {
	Suggestions []string `json:"suggestions"`
}

// OptimizerAgent is an advisory, non-blocking reviewer that suggests
// methodology refinements. Grounded on original_source/src/agents/
// advanced/methodology_optimizer_agent.py. Per spec §9's closed-graph
// design, its output is advisory only: nothing downstream re-runs the
// methodology step based on it (no revision loop).
type OptimizerAgent struct {
	gw *llmgateway.Gateway
}

func NewOptimizerAgent(gw *llmgateway.Gateway) *OptimizerAgent {
	return &OptimizerAgent{gw: gw}
}

func (a *OptimizerAgent) Kind() model.TaskKind { return model.TaskOptimizer }

func (a *OptimizerAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskMethodology, model.TaskIntroduction)
}

func (a *OptimizerAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	intro, err := depFields[introductionFields](in, model.TaskIntroduction)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("optimizer: %w", err)
	}
	methodology, err := depFields[methodologyFields](in, model.TaskMethodology)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("optimizer: %w", err)
	}

	resp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are a methodology reviewer. Suggest concrete improvements to the methodology given the introduction's stated objectives. One suggestion per line.",
		Prompt:       fmt.Sprintf("Objectives (from introduction):\n%s\n\nMethodology:\n%s", intro.Text, methodology.Text),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("optimizer: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("optimizer: llm gateway returned an empty response"))
	}

	fields, err := toFields(optimizerFields{Suggestions: splitLines(resp.Text)})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("optimizer: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskOptimizer, Fields: fields}, nil
}

var _ agent.Agent = (*OptimizerAgent)(nil)
