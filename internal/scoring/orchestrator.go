package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/job-pipeline/internal/types"
)

// Store is the persistence surface the scoring stage needs.
type Store interface {
	ListUnscoredJobs(ctx context.Context) ([]types.Job, error)
	UpdateJob(ctx context.Context, id uuid.UUID, patch types.JobPatch) error
}

// ProgressFunc reports per-job scoring progress.
type ProgressFunc func(done, total int, current string)

// Orchestrator drives the scoring stage over all unscored jobs.
type Orchestrator struct {
	store    Store
	scorer   Scorer
	sponsors *SponsorIndex
	log      zerolog.Logger
}

func NewOrchestrator(store Store, scorer Scorer, sponsors *SponsorIndex, log zerolog.Logger) *Orchestrator {
	if sponsors == nil {
		sponsors = DefaultSponsorIndex()
	}
	return &Orchestrator{store: store, scorer: scorer, sponsors: sponsors, log: log}
}

// ScoreJobs scores every unscored discovered job and persists each result
// immediately, so an interrupted run loses at most the job in flight. Jobs
// that already carry a valid score pass through untouched. A single job
// failing to score is logged and skipped; the stage keeps going.
//
// Returns the number of jobs scored this invocation.
func (o *Orchestrator) ScoreJobs(ctx context.Context, profile *types.Profile, onProgress ProgressFunc) (int, error) {
	jobs, err := o.store.ListUnscoredJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unscored jobs: %w", err)
	}

	scored := 0
	for i := range jobs {
		job := &jobs[i]

		if err := ctx.Err(); err != nil {
			return scored, err
		}
		if onProgress != nil {
			onProgress(i, len(jobs), job.Title)
		}
		if job.HasScore() {
			continue
		}

		result, err := o.scorer.Score(ctx, job, profile)
		if err != nil {
			o.log.Warn().
				Str("job_id", job.ID.String()).
				Str("title", job.Title).
				Err(err).
				Msg("scoring failed, job stays unscored")
			continue
		}

		sponsorScore := o.sponsors.Match(job.Company)

		patch := types.JobPatch{
			SuitabilityScore:  &result.Score,
			SuitabilityReason: &result.Reason,
			SponsorScore:      &sponsorScore,
		}
		if err := o.store.UpdateJob(ctx, job.ID, patch); err != nil {
			return scored, fmt.Errorf("failed to persist score for job %s: %w", job.ID, err)
		}

		o.log.Debug().
			Str("job_id", job.ID.String()).
			Float64("score", result.Score).
			Float64("sponsor_score", sponsorScore).
			Msg("job scored")
		scored++

		if onProgress != nil {
			onProgress(i+1, len(jobs), job.Title)
		}
	}

	return scored, nil
}
