// Package llmgateway is the single choke point through which every agent
// talks to a language model (spec §4.6). It wraps a tmc/langchaingo
// llms.Model behind a narrow Generate method, adding retry/backoff and a
// concurrency budget so agents never manage LLM client concerns themselves.
//
// The GenerateContent call shape (llms.MessageContent/llms.TextParts,
// reading response.Choices[0].Content) is grounded on the teacher's
// rag/pipeline.go generateNode and its rag/pipeline_test.go mockLLM, which
// define the same llms.Model contract this package wraps.
package llmgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/semaphore"

	"github.com/marcusreed/propforge/log"
)

// Request is a single generation request passed by an agent.
type Request struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64 // 0 means use the backend's default
	MaxTokens    int     // 0 means use the backend's default
}

// Response is the gateway's normalized result.
type Response struct {
	Text string
}

// Gateway wraps an llms.Model with retry, a concurrency budget, and
// structured logging. It is safe for concurrent use by multiple agents.
type Gateway struct {
	model   llms.Model
	logger  log.Logger
	sem     *semaphore.Weighted
	backoff func() backoff.BackOff
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the Gateway's logger. Defaults to a NoOpLogger.
func WithLogger(logger log.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithConcurrency bounds the number of in-flight GenerateContent calls
// across all callers, protecting the backend from an unbounded task-graph
// fan-out (spec §5: the LLM Gateway enforces its own rate/concurrency
// budget independent of the Scheduler's task parallelism).
func WithConcurrency(n int) Option {
	if n <= 0 {
		n = 4
	}
	return func(g *Gateway) { g.sem = semaphore.NewWeighted(int64(n)) }
}

// WithBackoff overrides the retry policy factory. Defaults to
// backoff.NewExponentialBackOff.
func WithBackoff(factory func() backoff.BackOff) Option {
	return func(g *Gateway) { g.backoff = factory }
}

// New wraps model with the given options.
func New(model llms.Model, opts ...Option) *Gateway {
	g := &Gateway{
		model:  model,
		logger: &log.NoOpLogger{},
		sem:    semaphore.NewWeighted(4),
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate issues req against the wrapped model, retrying transient
// failures with exponential backoff (cenkalti/backoff/v4) under the
// Gateway's concurrency budget. It returns whatever error the backend last
// produced if every retry is exhausted, or ctx.Err() if ctx is cancelled
// first.
func (g *Gateway) Generate(ctx context.Context, req Request) (Response, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return Response{}, fmt.Errorf("llmgateway: acquiring concurrency slot: %w", err)
	}
	defer g.sem.Release(1)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	var callOpts []llms.CallOption
	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	var out Response
	operation := func() error {
		resp, err := g.model.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			if permanentBackendErr(err) {
				return backoff.Permanent(err)
			}
			g.logger.Warn("llmgateway: generate attempt failed: %v", err)
			return err
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("llmgateway: backend returned no choices"))
		}
		out = Response{Text: resp.Choices[0].Content}
		return nil
	}

	policy := backoff.WithContext(g.backoff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return Response{}, fmt.Errorf("llmgateway: generate failed: %w", err)
	}
	return out, nil
}

// permanentBackendErr reports whether err is a backend response that no
// amount of retrying will fix: a 4xx status other than 429, which the
// OpenAI client surfaces as *openai.APIError. Anything else (network
// errors, 5xx, 429) is left to the backoff policy as transient.
func permanentBackendErr(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusBadRequest &&
			apiErr.HTTPStatusCode < http.StatusInternalServerError &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}
