package orchestrator_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/orchestrator"
	"github.com/marcusreed/propforge/statestore/memory"
	"github.com/marcusreed/propforge/taskgraph"
)

// stubAgent returns a canned output or error, optionally failing a fixed
// number of times before succeeding (to exercise the retry loop).
type stubAgent struct {
	kind       model.TaskKind
	failTimes  int32
	failCode   model.ErrorKind
	calls      int32
	sleep      time.Duration
	onExecute  func(in model.AgentInput)
}

func (s *stubAgent) Kind() model.TaskKind { return s.kind }

func (s *stubAgent) Validate(model.AgentInput) error { return nil }

func (s *stubAgent) Execute(ctx context.Context, in model.AgentInput) (model.AgentOutput, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.onExecute != nil {
		s.onExecute(in)
	}
	if s.sleep > 0 {
		select {
		case <-time.After(s.sleep):
		case <-ctx.Done():
			return model.AgentOutput{}, ctx.Err()
		}
	}
	if n <= s.failTimes {
		return model.AgentOutput{}, &model.TaskError{Kind: s.kind, Code: s.failCode, Err: assertError("synthetic failure")}
	}
	return model.AgentOutput{Kind: s.kind, Fields: map[string]any{"done_by": string(s.kind)}}, nil
}

type assertError string

func (e assertError) Error() string { return string(e) }

func buildRegistry(agents ...agent.Agent) *agent.Registry {
	reg := agent.NewRegistry()
	for _, a := range agents {
		reg.Register(a)
	}
	return reg.Freeze()
}

func allKindAgents(overrides map[model.TaskKind]agent.Agent) []agent.Agent {
	out := make([]agent.Agent, 0, len(model.AllTaskKinds))
	for _, k := range model.AllTaskKinds {
		if a, ok := overrides[k]; ok {
			out = append(out, a)
			continue
		}
		out = append(out, &stubAgent{kind: k})
	}
	return out
}

func TestSchedulerRunsEntireGraphOnSuccess(t *testing.T) {
	t.Parallel()

	reg := buildRegistry(allKindAgents(nil)...)
	graph, err := taskgraph.Build(model.NewJobID(), reg)
	require.NoError(t, err)

	store := memory.New(time.Minute)
	defer store.Close()

	sched := orchestrator.New(orchestrator.Config{MaxParallelTasks: 3}, reg, store, nil)
	req := &model.ProposalRequest{Topic: "quantum error correction survey"}
	require.NoError(t, req.Validate())

	result, err := sched.Run(context.Background(), req, graph)
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	assert.Nil(t, result.CriticalErr)
	assert.Len(t, result.Outputs, len(model.AllTaskKinds))
	for _, node := range graph.Nodes {
		assert.Equal(t, model.StatusSucceeded, node.Status)
	}
}

func TestSchedulerStampsStartedAndFinishedAtInEdgeOrder(t *testing.T) {
	t.Parallel()

	reg := buildRegistry(allKindAgents(nil)...)
	graph, err := taskgraph.Build(model.NewJobID(), reg)
	require.NoError(t, err)

	store := memory.New(time.Minute)
	defer store.Close()

	sched := orchestrator.New(orchestrator.Config{MaxParallelTasks: 3}, reg, store, nil)
	req := &model.ProposalRequest{Topic: "quantum error correction survey"}
	require.NoError(t, req.Validate())

	_, err = sched.Run(context.Background(), req, graph)
	require.NoError(t, err)

	for _, node := range graph.Nodes {
		require.NotNil(t, node.StartedAt, "kind %s missing StartedAt", node.Kind)
		require.NotNil(t, node.FinishedAt, "kind %s missing FinishedAt", node.Kind)
		assert.False(t, node.FinishedAt.Before(*node.StartedAt), "kind %s finished before it started", node.Kind)
	}
	for kind, node := range graph.Nodes {
		for dep := range node.Deps {
			upstream := graph.Nodes[dep]
			assert.True(t, node.StartedAt.After(*upstream.FinishedAt),
				"%s should start after its dependency %s finished", kind, dep)
		}
	}
}

func TestSchedulerRetriesTransientFailureThenSucceeds(t *testing.T) {
	t.Parallel()

	flaky := &stubAgent{kind: model.TaskLiterature, failTimes: 1, failCode: model.ErrTransient}
	reg := buildRegistry(allKindAgents(map[model.TaskKind]agent.Agent{model.TaskLiterature: flaky})...)
	graph, err := taskgraph.Build(model.NewJobID(), reg)
	require.NoError(t, err)

	store := memory.New(time.Minute)
	defer store.Close()

	sched := orchestrator.New(orchestrator.Config{MaxParallelTasks: 3, BackoffBase: time.Millisecond}, reg, store, nil)
	req := &model.ProposalRequest{Topic: "quantum error correction survey"}
	require.NoError(t, req.Validate())

	result, err := sched.Run(context.Background(), req, graph)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, graph.Nodes[model.TaskLiterature].Status)
	assert.Equal(t, 2, graph.Nodes[model.TaskLiterature].Attempts)
	assert.Len(t, result.Outputs, len(model.AllTaskKinds))
}

func TestSchedulerCancelsDescendantsOnCriticalFailure(t *testing.T) {
	t.Parallel()

	failing := &stubAgent{kind: model.TaskLiterature, failTimes: 100, failCode: model.ErrPermanent}
	reg := buildRegistry(allKindAgents(map[model.TaskKind]agent.Agent{model.TaskLiterature: failing})...)
	graph, err := taskgraph.Build(model.NewJobID(), reg)
	require.NoError(t, err)

	store := memory.New(time.Minute)
	defer store.Close()

	sched := orchestrator.New(orchestrator.Config{MaxParallelTasks: 3, BackoffBase: time.Millisecond}, reg, store, nil)
	req := &model.ProposalRequest{Topic: "quantum error correction survey"}
	require.NoError(t, req.Validate())

	result, err := sched.Run(context.Background(), req, graph)
	require.Error(t, err)
	require.NotNil(t, result.CriticalErr)

	var cfe *orchestrator.CriticalFailureError
	require.ErrorAs(t, result.CriticalErr, &cfe)
	assert.Equal(t, model.TaskLiterature, cfe.Kind)

	assert.Equal(t, model.StatusFailed, graph.Nodes[model.TaskLiterature].Status)
	for _, k := range model.AllTaskKinds {
		if k == model.TaskLiterature {
			continue
		}
		assert.Equal(t, model.StatusCancelled, graph.Nodes[k].Status, "kind %s should be cancelled", k)
	}
}

func TestSchedulerHonorsMaxParallelTasks(t *testing.T) {
	t.Parallel()

	var concurrent, maxSeen int32
	makeSlow := func(k model.TaskKind) agent.Agent {
		return &stubAgent{kind: k, sleep: 20 * time.Millisecond, onExecute: func(model.AgentInput) {
			n := atomic.AddInt32(&concurrent, 1)
			defer atomic.AddInt32(&concurrent, -1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
		}}
	}

	overrides := map[model.TaskKind]agent.Agent{
		model.TaskIntroduction:  makeSlow(model.TaskIntroduction),
		model.TaskMethodology:   makeSlow(model.TaskMethodology),
		model.TaskRisk:          makeSlow(model.TaskRisk),
		model.TaskOptimizer:     makeSlow(model.TaskOptimizer),
		model.TaskVisualization: makeSlow(model.TaskVisualization),
	}
	reg := buildRegistry(allKindAgents(overrides)...)
	graph, err := taskgraph.Build(model.NewJobID(), reg)
	require.NoError(t, err)

	store := memory.New(time.Minute)
	defer store.Close()

	sched := orchestrator.New(orchestrator.Config{MaxParallelTasks: 2}, reg, store, nil)
	req := &model.ProposalRequest{Topic: "quantum error correction survey"}
	require.NoError(t, req.Validate())

	_, err = sched.Run(context.Background(), req, graph)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}
