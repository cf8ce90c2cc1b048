// Package log provides the leveled logging interface used across propforge:
// the orchestrator's scheduler loop, agent executions, source connectors, and
// the HTTP facade all log through a Logger rather than the standard log
// package directly, so a deployment can swap in structured output without
// touching call sites.
//
// # Log Levels
//
// Five levels, in order of increasing severity: LogLevelDebug, LogLevelInfo,
// LogLevelWarn, LogLevelError, LogLevelNone (disables output).
//
// # Implementations
//
// DefaultLogger wraps the standard library's log.Logger; it is the
// implementation cmd/propforge uses. GologLogger wraps
// github.com/kataras/golog for structured, leveled output. NoOpLogger discards
// everything, useful in tests that don't want log noise.
//
//	glogger := golog.New()
//	logger := log.NewGologLogger(glogger)
//	logger.Info("job %s accepted with %d tasks", jobID, len(graph.Nodes))
//
// # Thread Safety
//
// All provided implementations are safe for concurrent use; the scheduler
// logs from multiple task goroutines without additional synchronization.
package log
