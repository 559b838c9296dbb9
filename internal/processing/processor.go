// Package processing runs the two-phase per-job stage: tailor content, then
// generate the resume PDF.
package processing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/job-pipeline/internal/docgen"
	"github.com/jonathan/job-pipeline/internal/tailoring"
	"github.com/jonathan/job-pipeline/internal/types"
)

// Store is the persistence surface the processing stage needs.
type Store interface {
	UpdateJob(ctx context.Context, id uuid.UUID, patch types.JobPatch) error
	SetJobStatus(ctx context.Context, id uuid.UUID, status types.JobStatus) error
}

// Options controls one processing pass.
type Options struct {
	// Force regenerates tailored content even when the job already has some.
	Force bool
	// ProjectCount is how many profile projects to feature per resume.
	ProjectCount int
}

// ProgressFunc reports per-job processing progress.
type ProgressFunc func(done, total int, current string)

// Processor drives tailoring and document generation for candidate jobs.
type Processor struct {
	store     Store
	tailorer  tailoring.Tailorer
	selector  tailoring.ProjectSelector
	generator docgen.Generator
	log       zerolog.Logger
}

func NewProcessor(store Store, tailorer tailoring.Tailorer, selector tailoring.ProjectSelector, generator docgen.Generator, log zerolog.Logger) *Processor {
	return &Processor{
		store:     store,
		tailorer:  tailorer,
		selector:  selector,
		generator: generator,
		log:       log,
	}
}

// ProcessJob runs both phases for a single job.
//
// Phase 1 tailors content. Existing content is reused unless Force is set.
// A tailoring failure fails the job, except under Force when prior content
// exists: then the prior content is kept and the failure is a warning.
// Project selection failing is never fatal; the resume just carries no
// projects.
//
// Phase 2 marks the job processing and renders the PDF. On success the job
// becomes ready; on failure its status reverts to discovered so the next run
// retries it.
func (p *Processor) ProcessJob(ctx context.Context, job *types.Job, profile *types.Profile, opts Options) error {
	content, err := p.tailor(ctx, job, profile, opts)
	if err != nil {
		return err
	}

	projectIDs := p.selectProjects(ctx, job, profile, opts)

	if err := p.store.SetJobStatus(ctx, job.ID, types.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	pdfPath, err := p.generator.Render(ctx, job, content, projectIDs)
	if err != nil {
		if revertErr := p.store.SetJobStatus(ctx, job.ID, types.StatusDiscovered); revertErr != nil {
			p.log.Error().
				Str("job_id", job.ID.String()).
				Err(revertErr).
				Msg("failed to revert job status after render failure")
		}
		return fmt.Errorf("document generation failed: %w", err)
	}

	ready := types.StatusReady
	patch := types.JobPatch{Status: &ready, PDFPath: &pdfPath}
	if err := p.store.UpdateJob(ctx, job.ID, patch); err != nil {
		return fmt.Errorf("failed to persist generated document: %w", err)
	}

	p.log.Info().
		Str("job_id", job.ID.String()).
		Str("title", job.Title).
		Str("pdf", pdfPath).
		Msg("job processed")
	return nil
}

// tailor returns the content to render, persisting freshly generated content.
func (p *Processor) tailor(ctx context.Context, job *types.Job, profile *types.Profile, opts Options) (types.TailoredContent, error) {
	prior := types.TailoredContent{
		Summary:  job.TailoredSummary,
		Headline: job.TailoredHeadline,
		Skills:   job.TailoredSkills,
	}

	if job.HasTailoredContent() && !opts.Force {
		return prior, nil
	}

	content, err := p.tailorer.Generate(ctx, job.Description, profile)
	if err != nil {
		if job.HasTailoredContent() {
			// Force regeneration failed but the job still has usable content.
			p.log.Warn().
				Str("job_id", job.ID.String()).
				Err(err).
				Msg("tailoring failed, keeping prior content")
			return prior, nil
		}
		return types.TailoredContent{}, fmt.Errorf("tailoring failed: %w", err)
	}

	patch := types.JobPatch{
		TailoredSummary:  &content.Summary,
		TailoredHeadline: &content.Headline,
		TailoredSkills:   content.Skills,
	}
	if err := p.store.UpdateJob(ctx, job.ID, patch); err != nil {
		return types.TailoredContent{}, fmt.Errorf("failed to persist tailored content: %w", err)
	}
	return content, nil
}

// selectProjects picks projects for the resume. Failures downgrade to an
// empty selection.
func (p *Processor) selectProjects(ctx context.Context, job *types.Job, profile *types.Profile, opts Options) []string {
	if opts.ProjectCount <= 0 || len(profile.Projects) == 0 {
		return nil
	}

	ids, err := p.selector.Pick(ctx, job.Description, profile.Projects, opts.ProjectCount)
	if err != nil {
		p.log.Warn().
			Str("job_id", job.ID.String()).
			Err(err).
			Msg("project selection failed, resume will carry no projects")
		return nil
	}

	if len(ids) > 0 {
		if err := p.store.UpdateJob(ctx, job.ID, types.JobPatch{SelectedProjectIDs: ids}); err != nil {
			p.log.Warn().
				Str("job_id", job.ID.String()).
				Err(err).
				Msg("failed to persist project selection")
		}
	}
	return ids
}

// ProcessBatch processes candidates strictly in order. One job failing is
// logged and the batch moves on; cancellation is honored between jobs.
// Returns how many jobs reached ready.
func (p *Processor) ProcessBatch(ctx context.Context, jobs []types.Job, profile *types.Profile, opts Options, onProgress ProgressFunc) (int, error) {
	processed := 0
	for i := range jobs {
		job := &jobs[i]

		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if onProgress != nil {
			onProgress(i, len(jobs), job.Title)
		}

		if err := p.ProcessJob(ctx, job, profile, opts); err != nil {
			p.log.Warn().
				Str("job_id", job.ID.String()).
				Str("title", job.Title).
				Err(err).
				Msg("job processing failed")
			continue
		}
		processed++

		if onProgress != nil {
			onProgress(i+1, len(jobs), job.Title)
		}
	}
	return processed, nil
}
