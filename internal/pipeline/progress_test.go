package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-pipeline/internal/types"
)

func TestProgress_StartsIdle(t *testing.T) {
	p := NewProgress()
	assert.Equal(t, types.StepIdle, p.Read().Step)
}

func TestProgress_UpdateIsFieldWise(t *testing.T) {
	p := NewProgress()

	p.Update(ProgressPatch{Step: stepPtr(types.StepCrawling), SourcesTotal: intPtr(2)})
	p.Update(ProgressPatch{SourcesDone: intPtr(1)})

	snap := p.Read()
	assert.Equal(t, types.StepCrawling, snap.Step)
	assert.Equal(t, 2, snap.SourcesTotal)
	assert.Equal(t, 1, snap.SourcesDone)
}

func TestProgress_LastWriteWins(t *testing.T) {
	p := NewProgress()

	p.Update(ProgressPatch{CurrentJob: strPtr("first")})
	p.Update(ProgressPatch{CurrentJob: strPtr("second")})
	assert.Equal(t, "second", p.Read().CurrentJob)
}

func TestProgress_ResetClearsEverything(t *testing.T) {
	p := NewProgress()

	p.Update(ProgressPatch{Step: stepPtr(types.StepScoring), JobsScored: intPtr(7), Message: strPtr("x")})
	p.Reset()

	snap := p.Read()
	assert.Equal(t, types.StepIdle, snap.Step)
	assert.Zero(t, snap.JobsScored)
	assert.Empty(t, snap.Message)
}

func TestProgress_ReadReturnsCopy(t *testing.T) {
	p := NewProgress()

	snap := p.Read()
	snap.JobsFound = 99
	assert.Zero(t, p.Read().JobsFound)
}

func TestProgress_ConcurrentAccess(t *testing.T) {
	p := NewProgress()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Update(ProgressPatch{JobsDone: intPtr(i)})
		}()
		go func() {
			defer wg.Done()
			_ = p.Read()
		}()
	}
	wg.Wait()
}
