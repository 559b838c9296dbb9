package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a pipeline run record.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun is one record per orchestration attempt. Created at run start,
// updated with counters and a terminal status, never deleted by the engine.
type PipelineRun struct {
	ID             uuid.UUID  `json:"id"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	JobsDiscovered int        `json:"jobs_discovered"`
	JobsScored     int        `json:"jobs_scored"`
	JobsProcessed  int        `json:"jobs_processed"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// RunPatch holds the optional fields an update may set on a run record.
// Nil fields are left unchanged.
type RunPatch struct {
	Status         *RunStatus
	JobsDiscovered *int
	JobsScored     *int
	JobsProcessed  *int
	ErrorMessage   *string
}
