package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/model"
)

type referencesFields struct {
	References []model.Reference `json:"references"`
}

// ReferencesAgent formats the deduplicated literature set into a citation
// list. It performs no LLM call: citation formatting is a mechanical
// transform of already-extracted bibliographic fields, grounded on
// original_source/src/agents/document_structure/
// reference_citation_agent.py's deterministic formatting step (the
// Python agent's LLM usage there is limited to citation style selection,
// which this package fixes to a single APA-like style instead).
type ReferencesAgent struct{}

func NewReferencesAgent() *ReferencesAgent { return &ReferencesAgent{} }

func (a *ReferencesAgent) Kind() model.TaskKind { return model.TaskReferences }

func (a *ReferencesAgent) Validate(in model.AgentInput) error {
	return agent.RequireDeps(a.Kind(), in, model.TaskLiterature)
}

func (a *ReferencesAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	lit, err := depFields[literatureFields](in, model.TaskLiterature)
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("references: %w", err)
	}

	refs := make([]model.Reference, 0, len(lit.Papers))
	for _, p := range lit.Papers {
		year := 0
		if p.Year != nil {
			year = *p.Year
		}
		refs = append(refs, model.Reference{
			Authors:   p.Authors,
			Year:      year,
			Title:     p.Title,
			Venue:     p.Venue,
			DOI:       p.DOI,
			URL:       p.URL,
			Formatted: formatAPA(p, year),
			InText:    inTextCitation(p.Authors, year),
		})
	}

	fields, err := toFields(referencesFields{References: refs})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("references: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskReferences, Fields: fields}, nil
}

func formatAPA(p model.Paper, year int) string {
	authors := strings.Join(p.Authors, ", ")
	if authors == "" {
		authors = "Unknown"
	}
	yearPart := "n.d."
	if year > 0 {
		yearPart = fmt.Sprintf("%d", year)
	}
	venue := p.Venue
	if venue == "" {
		venue = p.Source
	}
	formatted := fmt.Sprintf("%s (%s). %s. %s.", authors, yearPart, p.Title, venue)
	if p.DOI != "" {
		formatted += fmt.Sprintf(" https://doi.org/%s", p.DOI)
	}
	return formatted
}

func inTextCitation(authors []string, year int) string {
	lead := "Unknown"
	if len(authors) > 0 {
		parts := strings.Fields(authors[0])
		if len(parts) > 0 {
			lead = parts[len(parts)-1]
		}
	}
	suffix := ""
	if len(authors) > 1 {
		suffix = " et al."
	}
	yearPart := "n.d."
	if year > 0 {
		yearPart = fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("(%s%s, %s)", lead, suffix, yearPart)
}

var _ agent.Agent = (*ReferencesAgent)(nil)
