package orchestrator

import (
	"errors"
	"fmt"

	"github.com/marcusreed/propforge/model"
)

// ErrJobCancelled is the sentinel Scheduler.Run returns, wrapping the
// context's error, when a job terminates because of an external cancel
// signal or its deadline (spec §7: cancellation is reported once per job,
// not per task). A critical task failure is returned as
// *CriticalFailureError instead.
var ErrJobCancelled = errors.New("orchestrator: job cancelled")

// CriticalFailureError wraps the first critical task failure, surfaced
// verbatim (kind + message) per spec §7.
type CriticalFailureError struct {
	Kind model.TaskKind
	Err  error
}

func (e *CriticalFailureError) Error() string {
	return fmt.Sprintf("critical task %s failed: %v", e.Kind, e.Err)
}

func (e *CriticalFailureError) Unwrap() error { return e.Err }

// BuildError wraps a task-graph construction failure (spec §4.3/§8 scenario 2).
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string { return fmt.Sprintf("orchestrator: graph construction failed: %v", e.Err) }
func (e *BuildError) Unwrap() error  { return e.Err }
