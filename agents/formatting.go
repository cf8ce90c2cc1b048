package agents

import (
	"context"
	"fmt"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/model"
)

type formattingFields struct {
	Sections   []model.Section   `json:"sections"`
	References []model.Reference `json:"references"`
	QAPassed   bool              `json:"qa_passed"`
	QAIssues   []string          `json:"qa_issues,omitempty"`
}

// FormattingAgent is a purely deterministic, LLM-free kind
// (model.TaskKind.IsDeterministicAssembly, spec §4.4: zero retries) that
// reshapes the drafted section texts into model.Section values in the
// fixed order model.SectionOrder defines, with word counts recomputed.
//
// Grounded on original_source/src/agents/document_structure/
// structure_formatting_agent.py (orders sections, applies heading levels,
// recomputes word counts) and the teacher's graph.StateMerger concept
// (graph/graph.go) of combining several upstream branch states into one.
type FormattingAgent struct{}

func NewFormattingAgent() *FormattingAgent { return &FormattingAgent{} }

func (a *FormattingAgent) Kind() model.TaskKind { return model.TaskFormatting }

func (a *FormattingAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in,
		model.TaskFrontMatter, model.TaskIntroduction, model.TaskLiterature, model.TaskMethodology,
		model.TaskVisualization, model.TaskRisk, model.TaskReferences, model.TaskQA,
	)
}

func (a *FormattingAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	front, err := depFields[frontMatterFields](in, model.TaskFrontMatter)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	intro, err := depFields[introductionFields](in, model.TaskIntroduction)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	lit, err := depFields[literatureFields](in, model.TaskLiterature)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	methodology, err := depFields[methodologyFields](in, model.TaskMethodology)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	viz, err := depFields[visualizationFields](in, model.TaskVisualization)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	risk, err := depFields[riskFields](in, model.TaskRisk)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	refs, err := depFields[referencesFields](in, model.TaskReferences)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	qa, err := depFields[qaFields](in, model.TaskQA)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}

	sections := map[model.TaskKind]model.Section{
		model.TaskFrontMatter: {
			Title:   front.Title,
			Content: fmt.Sprintf("%s\n\n%s", front.Abstract, frontMatterByline(front)),
		},
		model.TaskIntroduction: {Title: "Introduction", Content: intro.Text},
		model.TaskLiterature:   {Title: "Literature Review", Content: lit.Summary},
		model.TaskMethodology:  {Title: "Methodology", Content: methodology.Text},
		model.TaskVisualization: {
			Title:   "Visualizations",
			Content: visualizationNarrative(viz.Figures),
		},
		model.TaskRisk: {Title: "Risk Assessment", Content: risk.Text},
	}

	ordered := make([]model.Section, 0, len(model.SectionOrder))
	for _, kind := range model.SectionOrder {
		sec := sections[kind]
		sec.RecomputeWordCount()
		ordered = append(ordered, sec)
	}

	fields, err := toFields(formattingFields{
		Sections:   ordered,
		References: refs.References,
		QAPassed:   qa.Passed,
		QAIssues:   qa.Issues,
	})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("formatting: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskFormatting, Fields: fields}, nil
}

func frontMatterByline(front frontMatterFields) string {
	byline := front.Author
	if front.Institution != "" {
		byline += ", " + front.Institution
	}
	if front.Department != "" {
		byline += " (" + front.Department + ")"
	}
	return byline
}

func visualizationNarrative(figures []Figure) string {
	var out string
	for _, f := range figures {
		out += fmt.Sprintf("%s: %s\n", f.Caption, f.Description)
	}
	return out
}

var _ agent.Agent = (*FormattingAgent)(nil)
