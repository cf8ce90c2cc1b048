package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/sources"
)

// literatureFields is the Fields shape literature writes and the
// downstream agents that use it (introduction, references, qa, formatting)
// read back via depFields.
type literatureFields struct {
	Papers  []model.Paper `json:"papers"`
	Summary string        `json:"summary"`
	Gaps    []string      `json:"gaps"`
}

// LiteratureAgent is the sole root of the canonical task graph. It fans out
// to every configured sources.Connector in parallel, deduplicates the
// combined result, and asks the LLM Gateway to synthesize a summary and
// identify research gaps.
//
// Grounded on original_source/src/agents/content_generation/
// literature_review_agent.py (LiteratureReviewAgent: queries multiple MCP
// servers, filters/ranks by relevance, synthesizes findings, identifies
// gaps), with the multi-server fan-out translated to a goroutine-per-
// connector pattern matching the teacher's graph.ParallelNode.Execute
// shape already used in orchestrator.Scheduler.Run.
type LiteratureAgent struct {
	gw         *llmgateway.Gateway
	connectors []sources.Connector
	minPapers  int
	maxPapers  int
}

// NewLiteratureAgent builds the literature agent. minPapers/maxPapers
// mirror the Python agent's constructor defaults (min_papers=30,
// max_papers=50); pass 0 for either to take those defaults.
func NewLiteratureAgent(gw *llmgateway.Gateway, connectors []sources.Connector, minPapers, maxPapers int) *LiteratureAgent {
	if minPapers <= 0 {
		minPapers = 30
	}
	if maxPapers <= 0 {
		maxPapers = 50
	}
	return &LiteratureAgent{gw: gw, connectors: connectors, minPapers: minPapers, maxPapers: maxPapers}
}

func (a *LiteratureAgent) Kind() model.TaskKind { return model.TaskLiterature }

func (a *LiteratureAgent) Validate(in model.AgentInput) error {
	if in.Topic == "" {
		return fmt.Errorf("literature: topic is required")
	}
	if len(a.connectors) == 0 {
		return fmt.Errorf("literature: no source connectors configured")
	}
	return nil
}

func (a *LiteratureAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	papers, err := a.gatherPapers(ctx, in.Topic)
	if err != nil {
		return model.AgentOutput{}, err
	}

	summary, gaps, err := a.synthesize(ctx, in, papers)
	if err != nil {
		return model.AgentOutput{}, err
	}

	fields, err := toFields(literatureFields{Papers: papers, Summary: summary, Gaps: gaps})
	if err != nil {
		return model.AgentOutput{}, fmt.Errorf("literature: %w", err)
	}
	return model.AgentOutput{Kind: model.TaskLiterature, Fields: fields}, nil
}

// gatherPapers queries every connector concurrently, tolerating individual
// connector failures (a single dead source shouldn't fail the whole task),
// then deduplicates and ranks the merged set.
func (a *LiteratureAgent) gatherPapers(ctx context.Context, topic string) ([]model.Paper, error) {
	type result struct {
		papers []model.Paper
		err    error
	}
	results := make([]result, len(a.connectors))

	var wg sync.WaitGroup
	for i, c := range a.connectors {
		wg.Add(1)
		go func(i int, c sources.Connector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = result{err: fmt.Errorf("literature: connector %s panicked: %v", c.Name(), r)}
				}
			}()
			papers, err := c.Search(ctx, topic, sources.SearchFilters{MaxResults: a.maxPapers})
			results[i] = result{papers: papers, err: err}
		}(i, c)
	}
	wg.Wait()

	var merged []model.Paper
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			continue
		}
		merged = append(merged, r.papers...)
	}
	if failures == len(a.connectors) {
		return nil, fmt.Errorf("literature: all %d source connectors failed", len(a.connectors))
	}

	deduped := model.DedupePapers(merged)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].CitationCount > deduped[j].CitationCount
	})
	if len(deduped) > a.maxPapers {
		deduped = deduped[:a.maxPapers]
	}
	return deduped, nil
}

func (a *LiteratureAgent) synthesize(ctx context.Context, in model.AgentInput, papers []model.Paper) (string, []string, error) {
	var refs string
	for i, p := range papers {
		if i >= 25 {
			break
		}
		refs += fmt.Sprintf("- %s (%s)\n", p.Title, p.Abstract)
	}

	summaryResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are an academic literature review writer. Synthesize the provided papers into a coherent prose summary relevant to the research topic. Do not invent papers not listed.",
		Prompt:       fmt.Sprintf("Topic: %s\nKey points:\n%s\n\nCandidate papers:\n%s", in.Topic, keyPointsList(in.KeyPoints), refs),
	})
	if err != nil {
		return "", nil, fmt.Errorf("literature: summarizing: %w", err)
	}
	if strings.TrimSpace(summaryResp.Text) == "" {
		return "", nil, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("literature: llm gateway returned an empty summary"))
	}

	gapsResp, err := a.gw.Generate(ctx, llmgateway.Request{
		SystemPrompt: "You are a research strategist. Given a literature summary, list the research gaps it reveals as one short gap per line.",
		Prompt:       fmt.Sprintf("Topic: %s\n\nLiterature summary:\n%s", in.Topic, summaryResp.Text),
	})
	if err != nil {
		return "", nil, fmt.Errorf("literature: identifying gaps: %w", err)
	}
	if strings.TrimSpace(gapsResp.Text) == "" {
		return "", nil, model.NewTaskError(a.Kind(), model.ErrPermanent, fmt.Errorf("literature: llm gateway returned an empty gaps response"))
	}

	return summaryResp.Text, splitLines(gapsResp.Text), nil
}

var _ agent.Agent = (*LiteratureAgent)(nil)
