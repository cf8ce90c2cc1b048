package model

import "github.com/google/uuid"

// JobID is an opaque string, unique per process lifetime, generated at job
// intake and immutable thereafter.
type JobID string

// NewJobID generates a fresh JobID.
func NewJobID() JobID {
	return JobID(uuid.New().String())
}

// TaskID is "{JobID}:{TaskKind}", unique within a job.
type TaskID string

// NewTaskID builds the canonical TaskID for a job/kind pair.
func NewTaskID(job JobID, kind TaskKind) TaskID {
	return TaskID(string(job) + ":" + string(kind))
}
