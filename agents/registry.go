package agents

import (
	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/sources"
)

// BuildRegistry constructs and freezes an agent.Registry covering every
// model.TaskKind the canonical graph requires, wiring each LLM-backed
// agent to gw and the literature agent to connectors.
func BuildRegistry(gw *llmgateway.Gateway, connectors []sources.Connector) *agent.Registry {
	reg := agent.NewRegistry()
	reg.Register(NewLiteratureAgent(gw, connectors, 0, 0))
	reg.Register(NewIntroductionAgent(gw))
	reg.Register(NewMethodologyAgent(gw))
	reg.Register(NewRiskAgent(gw))
	reg.Register(NewOptimizerAgent(gw))
	reg.Register(NewVisualizationAgent(gw))
	reg.Register(NewQAAgent(gw))
	reg.Register(NewReferencesAgent())
	reg.Register(NewFrontMatterAgent(gw))
	reg.Register(NewFormattingAgent())
	reg.Register(NewAssemblyAgent())
	return reg.Freeze()
}
