package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

type introductionFields struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// IntroductionAgent drafts the proposal's introduction from the literature
// summary. Grounded on original_source/src/agents/content_generation/
// introduction_agent.py (frames the problem, states objectives, situates
// the work against the literature review's findings).
type IntroductionAgent struct {
	gw *llmgateway.Gateway
}

func NewIntroductionAgent(gw *llmgateway.Gateway) *IntroductionAgent {
	return &IntroductionAgent{gw: gw}
}

func (a *IntroductionAgent) Kind() model.TaskKind { return model.TaskIntroduction }

func (a *IntroductionAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskLiterature)
}

func (a *IntroductionAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	lit, err := depFields[literatureFields](in, model.TaskLiterature)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("introduction: %w", err)
	}

	resp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are an academic proposal writer. Write a compelling introduction section: motivate the problem, state the objectives, and situate the work against the literature review provided. Prose only, no headings.",
		Prompt: fmt.Sprintf(
			"Topic: %s\nKey points:\n%s\n\nLiterature review summary:\n%s\n\nIdentified gaps:\n%s",
			in.Topic, keyPointsList(in.KeyPoints), lit.Summary, keyPointsList(lit.Gaps),
		),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("introduction: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("introduction: llm gateway returned an empty response"))
	}

	fields, err := toFields(introductionFields{Text: resp.Text, WordCount: wordCount(resp.Text)})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("introduction: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskIntroduction, Fields: fields}, nil
}

var _ agent.Agent = (*IntroductionAgent)(nil)
