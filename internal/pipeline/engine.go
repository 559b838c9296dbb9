package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/job-pipeline/internal/config"
	"github.com/jonathan/job-pipeline/internal/db"
	"github.com/jonathan/job-pipeline/internal/processing"
	"github.com/jonathan/job-pipeline/internal/scoring"
	"github.com/jonathan/job-pipeline/internal/selection"
	"github.com/jonathan/job-pipeline/internal/sources"
	"github.com/jonathan/job-pipeline/internal/types"
)

// defaultProjectCount is how many profile projects each resume features.
const defaultProjectCount = 3

// teardownTimeout bounds terminal-state persistence and notification after
// the run context is gone.
const teardownTimeout = 30 * time.Second

// Discoverer is the discovery stage surface.
type Discoverer interface {
	Discover(ctx context.Context, names []string, cfg sources.SearchConfig, onProgress sources.ProgressFunc) ([]sources.Result, error)
}

// Scorer is the scoring stage surface.
type Scorer interface {
	ScoreJobs(ctx context.Context, profile *types.Profile, onProgress scoring.ProgressFunc) (int, error)
}

// Processor is the per-job processing stage surface.
type Processor interface {
	ProcessBatch(ctx context.Context, jobs []types.Job, profile *types.Profile, opts processing.Options, onProgress processing.ProgressFunc) (int, error)
}

// JobStore is the slice of job persistence the engine touches directly.
type JobStore interface {
	BulkInsertJobs(ctx context.Context, jobs []types.Job) (db.ImportResult, error)
	ListScoredJobs(ctx context.Context) ([]types.Job, error)
}

// Deps are the stage implementations wired into an Engine.
type Deps struct {
	Discoverer Discoverer
	Jobs       JobStore
	Runs       RunStore
	Scorer     Scorer
	Processor  Processor
	Notifier   *Notifier
}

// Overrides are per-trigger adjustments layered over the loaded config.
type Overrides struct {
	SearchTerm string   `json:"search_term,omitempty"`
	Location   string   `json:"location,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	TopN       *int     `json:"top_n,omitempty"`
	MinScore   *float64 `json:"min_suitability_score,omitempty"`
	Force      *bool    `json:"force_tailoring,omitempty"`
}

// RunResult summarizes a finished run.
type RunResult struct {
	RunID              uuid.UUID `json:"run_id"`
	JobsFound          int       `json:"jobs_found"`
	JobsImported       int       `json:"jobs_imported"`
	JobsSkipped        int       `json:"jobs_skipped"`
	JobsScored         int       `json:"jobs_scored"`
	CandidatesSelected int       `json:"candidates_selected"`
	JobsProcessed      int       `json:"jobs_processed"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// Status is the minimal run-state view exposed to pollers.
type Status struct {
	IsRunning bool `json:"is_running"`
}

// Engine sequences the pipeline stages for one run at a time.
type Engine struct {
	cfg     config.Config
	profile *types.Profile

	discoverer Discoverer
	jobs       JobStore
	scorer     Scorer
	processor  Processor

	coordinator *Coordinator
	progress    *Progress
	notifier    *Notifier
	log         zerolog.Logger
}

func NewEngine(cfg config.Config, profile *types.Profile, deps Deps, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		profile:     profile,
		discoverer:  deps.Discoverer,
		jobs:        deps.Jobs,
		scorer:      deps.Scorer,
		processor:   deps.Processor,
		coordinator: NewCoordinator(deps.Runs),
		progress:    NewProgress(),
		notifier:    deps.Notifier,
		log:         log,
	}
}

// Status reports whether a run is active.
func (e *Engine) Status() Status {
	return Status{IsRunning: e.coordinator.IsRunning()}
}

// Progress returns a copy of the current progress snapshot.
func (e *Engine) Progress() types.ProgressSnapshot {
	return e.progress.Read()
}

// Start executes a full pipeline run. Only one run may be active: concurrent
// triggers get ErrAlreadyRunning and cause no side effects. Any stage error
// surfaces here exactly once: the run record is marked failed with the
// message, the slot is released, and the webhook fires after the terminal
// state is persisted.
//
// Cancellation is cooperative. The context is checked after each source
// during discovery and between jobs during scoring and processing; in-flight
// connector, LLM, and render calls see it through propagation.
func (e *Engine) Start(ctx context.Context, overrides Overrides) (RunResult, error) {
	if err := e.coordinator.TryStart(); err != nil {
		return RunResult{}, err
	}
	defer e.coordinator.Release()

	return e.run(ctx, overrides)
}

// StartDetached claims the run slot in the caller's goroutine and executes
// the run in the background. A losing trigger gets ErrAlreadyRunning here,
// before anything is spawned; the run itself reports through the run record,
// progress, logs, and the webhook.
func (e *Engine) StartDetached(ctx context.Context, overrides Overrides) error {
	if err := e.coordinator.TryStart(); err != nil {
		return err
	}
	go func() {
		defer e.coordinator.Release()
		// Errors are already logged and persisted by the run itself.
		_, _ = e.run(ctx, overrides)
	}()
	return nil
}

// run executes the stages. The caller owns the run slot.
func (e *Engine) run(ctx context.Context, overrides Overrides) (RunResult, error) {
	cfg := e.effectiveConfig(overrides)

	run, err := e.coordinator.Begin(ctx)
	if err != nil {
		return RunResult{}, err
	}

	e.progress.Reset()
	e.log.Info().Str("run_id", run.ID.String()).Msg("pipeline run started")

	result, runErr := e.execute(ctx, cfg, overrides)
	result.RunID = run.ID

	counts := Counts{
		JobsDiscovered: result.JobsFound,
		JobsScored:     result.JobsScored,
		JobsProcessed:  result.JobsProcessed,
	}

	// Terminal persistence and notification survive run cancellation.
	teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	if runErr != nil {
		e.progress.Update(ProgressPatch{Step: stepPtr(types.StepFailed), Message: strPtr(runErr.Error())})
		if failErr := e.coordinator.Fail(teardownCtx, run.ID, runErr.Error(), counts); failErr != nil {
			e.log.Error().Str("run_id", run.ID.String()).Err(failErr).Msg("failed to persist run failure")
		}
		e.notify(teardownCtx, run.ID, types.RunStatusFailed, counts, runErr.Error())
		e.log.Error().Str("run_id", run.ID.String()).Err(runErr).Msg("pipeline run failed")
		return result, runErr
	}

	if err := e.coordinator.Complete(teardownCtx, run.ID, counts); err != nil {
		// Progress must still reach a terminal step or stream consumers
		// wait forever.
		e.progress.Update(ProgressPatch{Step: stepPtr(types.StepFailed), Message: strPtr(err.Error())})
		e.log.Error().Str("run_id", run.ID.String()).Err(err).Msg("failed to persist run completion")
		return result, err
	}
	e.progress.setStep(types.StepComplete)
	e.notify(teardownCtx, run.ID, types.RunStatusCompleted, counts, "")

	e.log.Info().
		Str("run_id", run.ID.String()).
		Int("found", result.JobsFound).
		Int("imported", result.JobsImported).
		Int("scored", result.JobsScored).
		Int("processed", result.JobsProcessed).
		Msg("pipeline run completed")
	return result, nil
}

func (e *Engine) execute(ctx context.Context, cfg config.Config, overrides Overrides) (RunResult, error) {
	var result RunResult

	var discovered []types.Job
	if cfg.CrawlingEnabled() {
		e.progress.setStep(types.StepCrawling)

		names := sources.NormalizeSources(cfg.Sources)
		e.progress.Update(ProgressPatch{SourcesTotal: intPtr(len(names))})

		searchCfg := sources.SearchConfig{
			Query:             cfg.SearchTerm,
			Location:          cfg.Location,
			Country:           cfg.Country,
			ResultsWanted:     cfg.ResultsWanted,
			HoursOld:          cfg.HoursOld,
			Remote:            cfg.Remote,
			FetchDescriptions: true,
		}

		results, err := e.discoverer.Discover(ctx, names, searchCfg, func(source string, done, total int) {
			e.progress.Update(ProgressPatch{SourcesDone: intPtr(done), Message: strPtr("source: " + source)})
		})
		if err != nil {
			return result, fmt.Errorf("discovery failed: %w", err)
		}

		result.Warnings = sources.Warnings(results)
		for _, warning := range result.Warnings {
			e.log.Warn().Msg(warning)
		}

		discovered = sources.FlattenJobs(results)
		result.JobsFound = len(discovered)
		e.progress.Update(ProgressPatch{JobsFound: intPtr(result.JobsFound)})
	}

	if cfg.ImportingEnabled() && len(discovered) > 0 {
		e.progress.setStep(types.StepImporting)

		imported, err := e.jobs.BulkInsertJobs(ctx, discovered)
		if err != nil {
			return result, fmt.Errorf("import failed: %w", err)
		}
		result.JobsImported = imported.Created
		result.JobsSkipped = imported.Skipped
		e.progress.Update(ProgressPatch{
			JobsImported: intPtr(imported.Created),
			JobsSkipped:  intPtr(imported.Skipped),
		})
	}

	if cfg.ScoringEnabled() {
		e.progress.setStep(types.StepScoring)

		scored, err := e.scorer.ScoreJobs(ctx, e.profile, func(done, total int, current string) {
			e.progress.Update(ProgressPatch{
				ScoreTotal: intPtr(total),
				JobsScored: intPtr(done),
				CurrentJob: strPtr(current),
			})
		})
		if err != nil {
			return result, fmt.Errorf("scoring failed: %w", err)
		}
		result.JobsScored = scored
	}

	if cfg.AutoTailoringEnabled() {
		e.progress.setStep(types.StepProcessing)

		scoredJobs, err := e.jobs.ListScoredJobs(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to list scored jobs: %w", err)
		}

		candidates := selection.SelectCandidates(scoredJobs, cfg.MinSuitabilityScore, cfg.TopN)
		result.CandidatesSelected = len(candidates)
		e.progress.Update(ProgressPatch{ProcessTotal: intPtr(len(candidates))})

		force := cfg.ForceTailoring
		if overrides.Force != nil {
			force = *overrides.Force
		}

		processed, err := e.processor.ProcessBatch(ctx, candidates, e.profile, processing.Options{
			Force:        force,
			ProjectCount: defaultProjectCount,
		}, func(done, total int, current string) {
			e.progress.Update(ProgressPatch{JobsDone: intPtr(done), CurrentJob: strPtr(current)})
		})
		if err != nil {
			return result, fmt.Errorf("processing failed: %w", err)
		}
		result.JobsProcessed = processed
	}

	return result, nil
}

// effectiveConfig layers trigger overrides on top of the loaded config.
func (e *Engine) effectiveConfig(overrides Overrides) config.Config {
	cfg := e.cfg.ApplyDefaults()

	if overrides.SearchTerm != "" {
		cfg.SearchTerm = overrides.SearchTerm
	}
	if overrides.Location != "" {
		cfg.Location = overrides.Location
	}
	if len(overrides.Sources) > 0 {
		cfg.Sources = overrides.Sources
	}
	if overrides.TopN != nil {
		cfg.TopN = *overrides.TopN
	}
	if overrides.MinScore != nil {
		cfg.MinSuitabilityScore = *overrides.MinScore
	}
	return cfg
}

func (e *Engine) notify(ctx context.Context, runID uuid.UUID, status types.RunStatus, counts Counts, errMsg string) {
	e.notifier.Notify(ctx, &types.PipelineRun{
		ID:             runID,
		Status:         status,
		JobsDiscovered: counts.JobsDiscovered,
		JobsScored:     counts.JobsScored,
		JobsProcessed:  counts.JobsProcessed,
		ErrorMessage:   errMsg,
	})
}

func intPtr(v int) *int                { return &v }
func strPtr(v string) *string          { return &v }
func stepPtr(v types.Step) *types.Step { return &v }
