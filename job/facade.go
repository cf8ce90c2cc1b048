// Package job implements the Job Facade (spec §2, §6.1): the entry point
// that turns a model.ProposalRequest into a running job, synthesizing a
// task graph, handing it to the orchestrator.Scheduler, and exposing
// status/result either synchronously (Submit) or asynchronously
// (Start/Status).
//
// Grounded on the teacher's StateRunnable.Invoke (sync) versus the
// streaming/background invocation shown in graph/streaming.go (async),
// generalized from "run one compiled graph" to "run one job's task graph
// and remember its terminal record for later polling".
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcusreed/propforge/agent"
	"github.com/marcusreed/propforge/assembler"
	"github.com/marcusreed/propforge/log"
	"github.com/marcusreed/propforge/model"
	"github.com/marcusreed/propforge/orchestrator"
	"github.com/marcusreed/propforge/statestore"
	"github.com/marcusreed/propforge/taskgraph"
)

// Status is the terminal (or in-flight) state of a job, per spec §7's
// user-visible behavior: "completed | failed | cancelled", plus
// in_progress while still running.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Record is the Facade's view of one job, returned by Status and used
// internally as Submit/Start's bookkeeping.
type Record struct {
	JobID      model.JobID
	Status     Status
	Request    *model.ProposalRequest
	Proposal   *model.Proposal
	Err        string
	FailedKind model.TaskKind
}

// Facade wires together the Agent Registry, the State Store, and the
// Scheduler to run jobs. It is safe for concurrent use.
type Facade struct {
	registry *agent.Registry
	store    statestore.Store
	cfg      orchestrator.Config
	logger   log.Logger

	mu      sync.Mutex
	jobs    map[model.JobID]*Record
	cancels map[model.JobID]context.CancelFunc
}

// New builds a Facade. logger may be nil, in which case a log.NoOpLogger
// is used.
func New(registry *agent.Registry, store statestore.Store, cfg orchestrator.Config, logger log.Logger) *Facade {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Facade{
		registry: registry,
		store:    store,
		cfg:      cfg.WithDefaults(),
		logger:   logger,
		jobs:     make(map[model.JobID]*Record),
		cancels:  make(map[model.JobID]context.CancelFunc),
	}
}

// Submit runs req to completion and returns the assembled Proposal. It
// blocks for the whole job; callers that want to poll instead should use
// Start/Status.
func (f *Facade) Submit(ctx context.Context, req *model.ProposalRequest) (*model.Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}

	jobID := model.NewJobID()
	record := f.run(ctx, jobID, req)

	f.mu.Lock()
	f.jobs[jobID] = record
	f.mu.Unlock()

	if record.Status != StatusCompleted {
		return nil, fmt.Errorf("job: %s", record.Err)
	}
	return record.Proposal, nil
}

// Start launches req in a background goroutine and returns its JobID
// immediately. Poll Status for the result.
func (f *Facade) Start(req *model.ProposalRequest) (model.JobID, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("job: %w", err)
	}

	jobID := model.NewJobID()
	ctx, cancel := context.WithCancel(context.Background())

	f.mu.Lock()
	f.jobs[jobID] = &Record{JobID: jobID, Status: StatusInProgress, Request: req}
	f.cancels[jobID] = cancel
	f.mu.Unlock()

	go func() {
		defer cancel()
		record := f.run(ctx, jobID, req)
		f.mu.Lock()
		f.jobs[jobID] = record
		delete(f.cancels, jobID)
		f.mu.Unlock()
	}()

	return jobID, nil
}

// Status returns the current record for id, or (nil, false) if unknown.
func (f *Facade) Status(id model.JobID) (*Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.jobs[id]
	return r, ok
}

// Cancel requests cancellation of an in-flight job started via Start. It
// is a no-op (returns false) if the job is unknown or already terminal.
func (f *Facade) Cancel(id model.JobID) bool {
	f.mu.Lock()
	cancel, ok := f.cancels[id]
	f.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Health reports whether the Facade's State Store is reachable, for the
// GET /health endpoint (spec §6.1).
func (f *Facade) Health(ctx context.Context) error {
	return f.store.Ping(ctx)
}

// Agents lists the task kinds with a registered agent, for GET /agents.
func (f *Facade) Agents() []model.TaskKind {
	var kinds []model.TaskKind
	for _, k := range model.AllTaskKinds {
		if f.registry.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// ActiveJobCount reports how many jobs are currently in_progress, for
// GET /status.
func (f *Facade) ActiveJobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.jobs {
		if r.Status == StatusInProgress {
			n++
		}
	}
	return n
}

func (f *Facade) run(ctx context.Context, jobID model.JobID, req *model.ProposalRequest) *Record {
	graph, err := taskgraph.Build(jobID, f.registry)
	if err != nil {
		return &Record{JobID: jobID, Status: StatusFailed, Request: req, Err: err.Error()}
	}

	sched := orchestrator.New(f.cfg, f.registry, f.store, f.logger)
	result, err := sched.Run(ctx, req, graph)
	if err != nil {
		var cfe *orchestrator.CriticalFailureError
		if errors.As(err, &cfe) {
			return &Record{JobID: jobID, Status: StatusFailed, Request: req, Err: err.Error(), FailedKind: cfe.Kind}
		}
		if result != nil && result.Cancelled {
			return &Record{JobID: jobID, Status: StatusCancelled, Request: req, Err: err.Error()}
		}
		return &Record{JobID: jobID, Status: StatusFailed, Request: req, Err: err.Error()}
	}

	proposal, err := assembler.Assemble(jobID, req, result.Outputs)
	if err != nil {
		return &Record{JobID: jobID, Status: StatusFailed, Request: req, Err: fmt.Sprintf("job: assembling result: %v", err)}
	}
	assembler.Stamp(proposal, time.Now())

	return &Record{JobID: jobID, Status: StatusCompleted, Request: req, Proposal: proposal}
}
