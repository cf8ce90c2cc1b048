package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
)

type frontMatterFields struct {
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Author      string `json:"author"`
	Institution string `json:"institution"`
	Department  string `json:"department"`
}

// FrontMatterAgent drafts the title and abstract once the body sections it
// summarizes exist. Grounded on original_source/src/agents/
// document_structure/front_matter_agent.py (title page, abstract,
// keywords — keywords are not generated here; the abstract prompt does not
// ask for them and frontMatterFields has no field for them).
type FrontMatterAgent struct {
	gw *llmgateway.Gateway
}

func NewFrontMatterAgent(gw *llmgateway.Gateway) *FrontMatterAgent {
	return &FrontMatterAgent{gw: gw}
}

func (a *FrontMatterAgent) Kind() model.TaskKind { return model.TaskFrontMatter }

func (a *FrontMatterAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskIntroduction, model.TaskLiterature, model.TaskMethodology, model.TaskVisualization)
}

func (a *FrontMatterAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	intro, err := depFields[introductionFields](in, model.TaskIntroduction)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("front_matter: %w", err)
	}
	methodology, err := depFields[methodologyFields](in, model.TaskMethodology)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("front_matter: %w", err)
	}

	titleResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "Write a single, concise academic proposal title for the given topic. Respond with the title only, no quotes.",
		Prompt:       fmt.Sprintf("Topic: %s", in.Topic),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("front_matter: %w", err)
	}
	if strings.TrimSpace(titleResp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("front_matter: llm gateway returned an empty title"))
	}

	abstractResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "Write a 150-250 word abstract for the academic proposal, summarizing the introduction and methodology. Prose only.",
		Prompt:       fmt.Sprintf("Introduction:\n%s\n\nMethodology:\n%s", intro.Text, methodology.Text),
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("front_matter: %w", err)
	}
	if strings.TrimSpace(abstractResp.Text) == "" {
		return model.AgentOutput{}, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("front_matter: llm gateway returned an empty abstract"))
	}

	fields, err := toFields(frontMatterFields{
		Title:       titleResp.Text,
		Abstract:    abstractResp.Text,
		Author:      in.Author,
		Institution: in.Institution,
		Department:  in.Department,
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("front_matter: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskFrontMatter, Fields: fields}, nil
}

var _ agent.Agent = (*FrontMatterAgent)(nil)
