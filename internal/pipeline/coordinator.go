// Package pipeline orchestrates a full run: discovery, import, scoring,
// selection, and per-job processing, with at most one run active at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jonathan/job-pipeline/internal/types"
)

// ErrAlreadyRunning is returned when a run is triggered while another is
// still active.
var ErrAlreadyRunning = errors.New("a pipeline run is already in progress")

// RunStore persists pipeline run records.
type RunStore interface {
	CreateRun(ctx context.Context) (*types.PipelineRun, error)
	UpdateRun(ctx context.Context, id uuid.UUID, patch types.RunPatch) error
}

// Counts are the per-run counters persisted with the terminal state.
type Counts struct {
	JobsDiscovered int
	JobsScored     int
	JobsProcessed  int
}

// Coordinator enforces single-run mutual exclusion and owns the run record
// lifecycle.
type Coordinator struct {
	running atomic.Bool
	store   RunStore
}

func NewCoordinator(store RunStore) *Coordinator {
	return &Coordinator{store: store}
}

// TryStart claims the running slot. Exactly one concurrent caller wins;
// losers get ErrAlreadyRunning and nothing else happens.
func (c *Coordinator) TryStart() error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	return nil
}

// Release frees the running slot. Safe to call unconditionally, typically
// deferred right after a successful TryStart.
func (c *Coordinator) Release() {
	c.running.Store(false)
}

// IsRunning reports whether a run currently holds the slot.
func (c *Coordinator) IsRunning() bool {
	return c.running.Load()
}

// Begin creates the run record in status running.
func (c *Coordinator) Begin(ctx context.Context) (*types.PipelineRun, error) {
	run, err := c.store.CreateRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	return run, nil
}

// Complete persists the terminal completed state with final counters.
func (c *Coordinator) Complete(ctx context.Context, id uuid.UUID, counts Counts) error {
	status := types.RunStatusCompleted
	err := c.store.UpdateRun(ctx, id, types.RunPatch{
		Status:         &status,
		JobsDiscovered: &counts.JobsDiscovered,
		JobsScored:     &counts.JobsScored,
		JobsProcessed:  &counts.JobsProcessed,
	})
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	return nil
}

// Fail persists the terminal failed state with the error message.
func (c *Coordinator) Fail(ctx context.Context, id uuid.UUID, msg string, counts Counts) error {
	status := types.RunStatusFailed
	err := c.store.UpdateRun(ctx, id, types.RunPatch{
		Status:         &status,
		JobsDiscovered: &counts.JobsDiscovered,
		JobsScored:     &counts.JobsScored,
		JobsProcessed:  &counts.JobsProcessed,
		ErrorMessage:   &msg,
	})
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", id, err)
	}
	return nil
}
