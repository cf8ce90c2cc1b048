// Command propforge is the CLI entrypoint for the orchestration core
// (spec §6.1). It submits a single ProposalRequest synchronously and
// prints the assembled Proposal as JSON, matching the teacher's
// examples/ style of a flag-driven, dependency-free main package (none of
// the teacher's example programs pull in a CLI framework).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/marcusreed/propforge/agents"
	"github.com/marcusreed/propforge/config"
	"github.com/marcusreed/propforge/llmgateway"
	"github.com/marcusreed/propforge/log"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/orchestrator"
	"github.com/marcusreed/propforge/sources"
	"github.com/marcusreed/propforge/statestore"
	"github.com/marcusreed/propforge/statestore/memory"
	"github.com/marcusreed/propforge/statestore/rediskv"

	"github.com/marcusreed/propforge/job"
)

// Exit codes per spec §6.1.
const (
	exitSuccess       = 0
	exitJobFailure    = 1
	exitInvocationErr = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("propforge", flag.ContinueOnError)
	topic := fs.String("topic", "", "research proposal topic (required, min 10 characters)")
	keyPoints := fs.String("key-points", "", "comma-separated key points")
	author := fs.String("author", "", "author name")
	institution := fs.String("institution", "", "author institution")
	department := fs.String("department", "", "author department")
	envFile := fs.String("env-file", "", "path to a .env file (optional)")
	if err := fs.Parse(args); err != nil {
		return exitInvocationErr
	}

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "propforge: -topic is required")
		return exitInvocationErr
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "propforge: loading config: %v\n", err)
		return exitInvocationErr
	}

	logger := log.NewDefaultLogger(log.LogLevelInfo)

	store := buildStore(cfg)

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "propforge: building llm gateway: %v\n", err)
		return exitInvocationErr
	}

	connectors := buildConnectors(cfg)
	registry := agents.BuildRegistry(gw, connectors)

	facade := job.New(registry, store, orchestrator.Config{
		MaxParallelTasks:    cfg.MaxParallelTasks,
		TaskTimeout:         cfg.TaskTimeout,
		MaxRetriesTransient: cfg.MaxRetriesTransient,
		BackoffBase:         cfg.BackoffBase,
		BackoffFactor:       cfg.BackoffFactor,
		JobDeadline:         cfg.JobDeadline,
	}, logger)

	req := &model.ProposalRequest{
		Topic:       *topic,
		KeyPoints:   splitCommaList(*keyPoints),
		Author:      *author,
		Institution: *institution,
		Department:  *department,
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "propforge: invalid request: %v\n", err)
		return exitInvocationErr
	}

	proposal, err := facade.Submit(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "propforge: job failed: %v\n", err)
		return exitJobFailure
	}

	encoded, err := json.MarshalIndent(proposal, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "propforge: encoding result: %v\n", err)
		return exitJobFailure
	}
	fmt.Println(string(encoded))
	return exitSuccess
}

func buildStore(cfg config.Config) statestore.Store {
	if cfg.ForceMemoryStore {
		return memory.New(0)
	}
	return rediskv.New(rediskv.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func buildGateway(cfg config.Config, logger log.Logger) (*llmgateway.Gateway, error) {
	if cfg.LLMMock {
		return llmgateway.New(&llmgateway.MockModel{}, llmgateway.WithLogger(logger)), nil
	}
	model, err := llmgateway.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		return nil, err
	}
	return llmgateway.New(model, llmgateway.WithLogger(logger)), nil
}

func buildConnectors(cfg config.Config) []sources.Connector {
	return []sources.Connector{
		sources.NewArxivConnector(1.0 / 3),
		sources.NewSemanticScholarConnector(cfg.SemanticScholarAPIKey, 1),
		sources.NewCrossrefConnector(cfg.CrossrefMailTo, 2),
	}
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
