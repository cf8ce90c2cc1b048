// Package orchestrator implements the Scheduler: the single control task
// that walks a model.TaskGraph to completion under bounded parallelism,
// retrying transient task failures with exponential backoff and cancelling
// descendants of a failed node (spec §4.4, §5).
//
// The dispatch-loop/fan-out shape is grounded on the teacher's
// graph/parallel.go ParallelNode.Execute (goroutine-per-node with panic
// recovery, a buffered result channel, and a WaitGroup closer) and
// graph/retry.go RetryNode/TimeoutNode (per-attempt context timeout,
// select-based backoff sleep that still observes cancellation). Concurrency
// is bounded with golang.org/x/sync/semaphore rather than the teacher's
// unbounded fan-out, since spec §4.4 requires a hard cap on simultaneous
// running tasks.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/log"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/statestore"
)

// Scheduler runs a single job's task graph to completion.
type Scheduler struct {
	cfg      Config
	registry *agent.Registry
	store    statestore.Store
	logger   log.Logger
}

// New creates a Scheduler. logger may be nil, in which case a NoOpLogger is
// used.
func New(cfg Config, registry *agent.Registry, store statestore.Store, logger log.Logger) *Scheduler {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Scheduler{
		cfg:      cfg.WithDefaults(),
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// Result is the outcome of running a job's task graph.
type Result struct {
	Graph       *model.TaskGraph
	Outputs     map[model.TaskKind]model.AgentOutput
	Cancelled   bool
	CriticalErr error // set if a critical task failed (*CriticalFailureError)
}

type completion struct {
	kind model.TaskKind
	out  model.AgentOutput
	err  *model.TaskError
}

type retryReady struct {
	kind model.TaskKind
}

// Run executes graph to completion for the given request. It blocks until
// every node reaches a terminal status (succeeded, failed, or cancelled) or
// ctx is cancelled.
func (s *Scheduler) Run(parent context.Context, req *model.ProposalRequest, graph *model.TaskGraph) (*Result, error) {
	ctx := parent
	var cancel context.CancelFunc
	if s.cfg.JobDeadline > 0 {
		ctx, cancel = context.WithTimeout(parent, s.cfg.JobDeadline)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	maxParallel := s.cfg.MaxParallelTasks
	if req != nil {
		if _, set := req.Preferences["max_parallel_tasks"]; set {
			maxParallel = req.MaxParallelTasks()
		}
	}
	sem := semaphore.NewWeighted(int64(maxParallel))
	events := make(chan any, len(graph.Nodes)*2+1)

	var mu sync.Mutex
	outputs := make(map[model.TaskKind]model.AgentOutput, len(graph.Nodes))
	inFlight := make(map[model.TaskKind]bool)
	result := &Result{Graph: graph, Outputs: outputs}

	running := 0
	remaining := len(graph.Nodes)

	dispatch := func(kind model.TaskKind) {
		node := graph.Nodes[kind]
		if !sem.TryAcquire(1) {
			return
		}
		running++
		node.Status = model.StatusRunning
		startedAt := time.Now()
		node.StartedAt = &startedAt
		inFlight[kind] = true
		s.logger.Info("dispatching task %s (attempt %d)", kind, node.Attempts+1)

		go func() {
			out, taskErr := s.runOnce(ctx, req, graph, node)
			// Release before reporting, so the control loop can refill this
			// slot when it handles the completion.
			sem.Release(1)
			events <- completion{kind: kind, out: out, err: taskErr}
		}()
	}

	// Seed the run with every node that starts ready (literature, the sole
	// root per taskgraph.validateAcyclic).
	for kind, node := range graph.Nodes {
		if node.Status == model.StatusReady {
			dispatch(kind)
		}
	}

	abort := func(err error) {
		result.CriticalErr = err
		cancel()
	}

	for remaining > 0 {
		select {
		case <-ctx.Done():
			mu.Lock()
			s.cancelRemaining(graph)
			result.Cancelled = true
			mu.Unlock()
			if result.CriticalErr != nil {
				return result, result.CriticalErr
			}
			return result, fmt.Errorf("%w: %w", ErrJobCancelled, ctx.Err())

		case ev := <-events:
			mu.Lock()
			switch e := ev.(type) {
			case completion:
				running--
				delete(inFlight, e.kind)
				node := graph.Nodes[e.kind]
				if node.Status == model.StatusCancelled || node.Status == model.StatusFailed {
					// A sibling's critical failure already terminated this
					// node while its attempt was in flight; the late result
					// is discarded (spec §7: cancellation reported once per
					// job, not layered with a stale outcome).
				} else if e.err == nil {
					node.Status = model.StatusSucceeded
					finishedAt := time.Now()
					node.FinishedAt = &finishedAt
					outputs[e.kind] = e.out
					remaining--
					s.persistOutput(ctx, graph.JobID, e.kind, e.out)
					s.logger.Info("task %s succeeded", e.kind)
					for _, next := range graph.Successors(e.kind) {
						if graph.Nodes[next].Status == model.StatusPending && graph.AllDepsSucceeded(next) {
							graph.Nodes[next].Status = model.StatusReady
						}
					}
					for kind, n := range graph.Nodes {
						if n.Status == model.StatusReady && !inFlight[kind] {
							dispatch(kind)
						}
					}
				} else {
					node.Err = e.err
					deterministic := e.kind.IsDeterministicAssembly()
					budget := s.cfg.maxRetriesForDeterministic(deterministic)
					retryable := e.err.Code.Retryable() && node.Attempts <= budget
					if retryable {
						delay := s.backoffDelay(node.Attempts)
						s.logger.Warn("task %s failed (%s), retrying in %s", e.kind, e.err.Code, delay)
						kind := e.kind
						go func() {
							select {
							case <-time.After(delay):
								events <- retryReady{kind: kind}
							case <-ctx.Done():
							}
						}()
					} else {
						node.Status = model.StatusFailed
						failedAt := time.Now()
						node.FinishedAt = &failedAt
						remaining--
						s.logger.Error("task %s permanently failed (%s): %v", e.kind, e.err.Code, e.err.Err)
						remaining -= s.cancelDescendants(graph, e.kind)
						if isCriticalKind(graph, e.kind) {
							abort(&CriticalFailureError{Kind: e.kind, Err: e.err})
						}
					}
				}
			case retryReady:
				node := graph.Nodes[e.kind]
				if node.Status != model.StatusFailed && node.Status != model.StatusCancelled {
					node.Status = model.StatusReady
					if !inFlight[e.kind] {
						dispatch(e.kind)
					}
				}
			}
			mu.Unlock()
		}
	}

	if result.CriticalErr != nil {
		return result, result.CriticalErr
	}
	return result, nil
}

// isCriticalKind reports whether kind lies on a dependency path to assembly
// (spec §4.4/§9: "critical task ... its failure fails the job"). In the
// canonical graph every kind except optimizer reaches assembly; optimizer
// has no successors, so its failure does not fail the job. The answer is
// computed from the graph rather than hardcoded.
func isCriticalKind(graph *model.TaskGraph, kind model.TaskKind) bool {
	if kind == model.TaskAssembly {
		return true
	}
	visited := make(map[model.TaskKind]bool)
	var reaches func(model.TaskKind) bool
	reaches = func(k model.TaskKind) bool {
		if visited[k] {
			return false
		}
		visited[k] = true
		for _, next := range graph.Successors(k) {
			if next == model.TaskAssembly || reaches(next) {
				return true
			}
		}
		return false
	}
	return reaches(kind)
}

// runOnce invokes the registered agent for node.Kind exactly once, bounding
// it with the per-task timeout and recovering from panics the way the
// teacher's ParallelNode.Execute does.
func (s *Scheduler) runOnce(ctx context.Context, req *model.ProposalRequest, graph *model.TaskGraph, node *model.TaskNode) (model.AgentOutput, *model.TaskError) {
	node.Attempts++

	ag, ok := s.registry.Lookup(node.Kind)
	if !ok {
		return model.AgentOutput{}, model.NewTaskError(node.Kind, model.ErrInternal, fmt.Errorf("no agent registered for kind %s", node.Kind))
	}

	taskCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	type attemptResult struct {
		out model.AgentOutput
		err error
	}
	resultCh := make(chan attemptResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- attemptResult{err: fmt.Errorf("panic in agent %s: %v", node.Kind, r)}
			}
		}()
		in, err := s.buildInput(taskCtx, req, graph, node)
		if err != nil {
			resultCh <- attemptResult{err: err}
			return
		}
		if verr := ag.Validate(in); verr != nil {
			resultCh <- attemptResult{err: &model.TaskError{Kind: node.Kind, Code: model.ErrValidation, Err: verr}}
			return
		}
		o, err := ag.Execute(taskCtx, in)
		resultCh <- attemptResult{out: o, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err == nil {
			return res.out, nil
		}
		return model.AgentOutput{}, asTaskError(node.Kind, res.err)
	case <-taskCtx.Done():
		if ctx.Err() != nil {
			return model.AgentOutput{}, model.NewTaskError(node.Kind, model.ErrCancelled, ctx.Err())
		}
		return model.AgentOutput{}, model.NewTaskError(node.Kind, model.ErrTimeout, fmt.Errorf("task exceeded timeout of %s", s.cfg.TaskTimeout))
	}
}

func asTaskError(kind model.TaskKind, err error) *model.TaskError {
	if te, ok := err.(*model.TaskError); ok {
		return te
	}
	return model.NewTaskError(kind, model.ErrInternal, err)
}

// buildInput assembles the AgentInput view for node: the immutable request
// fields plus exactly the outputs of its declared dependencies, loaded from
// the state store (spec §4.1: agents see only declared deps, never the
// whole graph).
func (s *Scheduler) buildInput(ctx context.Context, req *model.ProposalRequest, graph *model.TaskGraph, node *model.TaskNode) (model.AgentInput, error) {
	deps := make(map[model.TaskKind]model.AgentOutput, len(node.DepsSlice()))
	for _, dep := range node.DepsSlice() {
		raw, err := s.store.Get(ctx, statestore.TaskOutputKey(string(graph.JobID), string(dep)))
		if err != nil {
			return model.AgentInput{}, fmt.Errorf("loading dependency %s output: %w", dep, err)
		}
		var out model.AgentOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return model.AgentInput{}, fmt.Errorf("decoding dependency %s output: %w", dep, err)
		}
		deps[dep] = out
	}
	in := model.AgentInput{DependencyOutputs: deps}
	if req != nil {
		in.Topic = req.Topic
		in.KeyPoints = req.KeyPoints
		in.Preferences = req.Preferences
		in.Author = req.Author
		in.Institution = req.Institution
		in.Department = req.Department
	}
	return in, nil
}

func (s *Scheduler) persistOutput(ctx context.Context, jobID model.JobID, kind model.TaskKind, out model.AgentOutput) {
	raw, err := json.Marshal(out)
	if err != nil {
		s.logger.Error("encoding output for %s: %v", kind, err)
		return
	}
	if err := s.store.Set(ctx, statestore.TaskOutputKey(string(jobID), string(kind)), raw, 0); err != nil {
		s.logger.Error("persisting output for %s: %v", kind, err)
	}
}

// cancelDescendants marks every transitive descendant of kind as cancelled
// and returns how many nodes were newly terminated this way (spec §4.4: a
// failed node's descendants never run).
func (s *Scheduler) cancelDescendants(graph *model.TaskGraph, kind model.TaskKind) int {
	count := 0
	visited := make(map[model.TaskKind]bool)
	var visit func(model.TaskKind)
	visit = func(k model.TaskKind) {
		for _, next := range graph.Successors(k) {
			if visited[next] {
				continue
			}
			visited[next] = true
			node := graph.Nodes[next]
			switch node.Status {
			case model.StatusSucceeded, model.StatusFailed, model.StatusCancelled:
				// already terminal, leave as-is
			default:
				node.Status = model.StatusCancelled
				cancelledAt := time.Now()
				node.FinishedAt = &cancelledAt
				count++
			}
			visit(next)
		}
	}
	visit(kind)
	return count
}

// cancelRemaining marks every non-terminal node cancelled, used when the
// whole job is cancelled (deadline or external ctx cancel).
func (s *Scheduler) cancelRemaining(graph *model.TaskGraph) {
	for _, node := range graph.Nodes {
		switch node.Status {
		case model.StatusSucceeded, model.StatusFailed, model.StatusCancelled:
		default:
			node.Status = model.StatusCancelled
			cancelledAt := time.Now()
			node.FinishedAt = &cancelledAt
		}
	}
}

// backoffDelay computes the exponential backoff delay before retry attempt
// number (node.Attempts+1), grounded on the teacher's
// graph.ExponentialBackoffRetry shape.
func (s *Scheduler) backoffDelay(attempts int) time.Duration {
	d := float64(s.cfg.BackoffBase) * math.Pow(s.cfg.BackoffFactor, float64(attempts-1))
	return time.Duration(d)
}
