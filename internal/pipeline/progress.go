package pipeline

import (
	"sync"

	"github.com/jonathan/job-pipeline/internal/types"
)

// ProgressPatch updates individual snapshot fields. Nil fields are left
// unchanged; last write wins per field.
type ProgressPatch struct {
	Step         *types.Step
	SourcesTotal *int
	SourcesDone  *int
	JobsFound    *int
	JobsImported *int
	JobsSkipped  *int
	ScoreTotal   *int
	JobsScored   *int
	ProcessTotal *int
	JobsDone     *int
	CurrentJob   *string
	Message      *string
}

// Progress holds the single in-memory snapshot of the current run. It keeps
// no history: pollers always see the latest state.
type Progress struct {
	mu       sync.Mutex
	snapshot types.ProgressSnapshot
}

func NewProgress() *Progress {
	return &Progress{snapshot: types.ProgressSnapshot{Step: types.StepIdle}}
}

// Reset clears the snapshot back to idle at the start of a run.
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = types.ProgressSnapshot{Step: types.StepIdle}
}

// Update applies the patch to the snapshot.
func (p *Progress) Update(patch ProgressPatch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if patch.Step != nil {
		p.snapshot.Step = *patch.Step
	}
	if patch.SourcesTotal != nil {
		p.snapshot.SourcesTotal = *patch.SourcesTotal
	}
	if patch.SourcesDone != nil {
		p.snapshot.SourcesDone = *patch.SourcesDone
	}
	if patch.JobsFound != nil {
		p.snapshot.JobsFound = *patch.JobsFound
	}
	if patch.JobsImported != nil {
		p.snapshot.JobsImported = *patch.JobsImported
	}
	if patch.JobsSkipped != nil {
		p.snapshot.JobsSkipped = *patch.JobsSkipped
	}
	if patch.ScoreTotal != nil {
		p.snapshot.ScoreTotal = *patch.ScoreTotal
	}
	if patch.JobsScored != nil {
		p.snapshot.JobsScored = *patch.JobsScored
	}
	if patch.ProcessTotal != nil {
		p.snapshot.ProcessTotal = *patch.ProcessTotal
	}
	if patch.JobsDone != nil {
		p.snapshot.JobsDone = *patch.JobsDone
	}
	if patch.CurrentJob != nil {
		p.snapshot.CurrentJob = *patch.CurrentJob
	}
	if patch.Message != nil {
		p.snapshot.Message = *patch.Message
	}
}

// Read returns a copy of the current snapshot. Never blocks on a running
// pipeline: the engine only holds the lock for field writes.
func (p *Progress) Read() types.ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// setStep is the common "advance to stage" update.
func (p *Progress) setStep(step types.Step) {
	p.Update(ProgressPatch{Step: &step})
}
