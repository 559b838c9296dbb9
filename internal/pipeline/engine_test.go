package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pipeline/internal/config"
	"github.com/jonathan/job-pipeline/internal/db"
	"github.com/jonathan/job-pipeline/internal/processing"
	"github.com/jonathan/job-pipeline/internal/scoring"
	"github.com/jonathan/job-pipeline/internal/sources"
	"github.com/jonathan/job-pipeline/internal/types"
)

type fakeDiscoverer struct {
	results []sources.Result
	err     error
	started chan struct{}
	release chan struct{}
	calls   int
}

func (f *fakeDiscoverer) Discover(_ context.Context, _ []string, _ sources.SearchConfig, _ sources.ProgressFunc) ([]sources.Result, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.results, f.err
}

type fakeJobStore struct {
	imported   db.ImportResult
	importErr  error
	insertArgs []types.Job
	scoredJobs []types.Job
	calls      int
}

func (f *fakeJobStore) BulkInsertJobs(_ context.Context, jobs []types.Job) (db.ImportResult, error) {
	f.calls++
	f.insertArgs = jobs
	return f.imported, f.importErr
}

func (f *fakeJobStore) ListScoredJobs(_ context.Context) ([]types.Job, error) {
	return f.scoredJobs, nil
}

type fakeStageScorer struct {
	scored int
	err    error
	calls  int
}

func (f *fakeStageScorer) ScoreJobs(_ context.Context, _ *types.Profile, _ scoring.ProgressFunc) (int, error) {
	f.calls++
	return f.scored, f.err
}

type fakeStageProcessor struct {
	processed  int
	err        error
	candidates []types.Job
	opts       processing.Options
	calls      int
}

func (f *fakeStageProcessor) ProcessBatch(_ context.Context, jobs []types.Job, _ *types.Profile, opts processing.Options, _ processing.ProgressFunc) (int, error) {
	f.calls++
	f.candidates = jobs
	f.opts = opts
	return f.processed, f.err
}

func scoredJob(title string, score float64) types.Job {
	return types.Job{ID: uuid.New(), Title: title, SuitabilityScore: &score, Status: types.StatusDiscovered}
}

func sourceResult(jobs ...types.Job) []sources.Result {
	return []sources.Result{{Source: "indeed", Jobs: jobs}}
}

func newTestEngine(deps Deps) *Engine {
	if deps.Notifier == nil {
		deps.Notifier = NewNotifier("", zerolog.Nop())
	}
	cfg := config.Config{Sources: []string{"indeed"}}
	return NewEngine(cfg, &types.Profile{Name: "Sam"}, deps, zerolog.Nop())
}

func TestStart_EndToEnd(t *testing.T) {
	jobA := scoredJob("Job A", 70)

	var payload webhookPayload
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
	}))
	defer hook.Close()

	runs := &fakeRunStore{}
	jobs := &fakeJobStore{imported: db.ImportResult{Created: 1}, scoredJobs: []types.Job{jobA}}
	processor := &fakeStageProcessor{processed: 1}

	engine := newTestEngine(Deps{
		Discoverer: &fakeDiscoverer{results: sourceResult(jobA)},
		Jobs:       jobs,
		Runs:       runs,
		Scorer:     &fakeStageScorer{scored: 1},
		Processor:  processor,
		Notifier:   NewNotifier(hook.URL, zerolog.Nop()),
	})

	result, err := engine.Start(context.Background(), Overrides{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.JobsFound)
	assert.Equal(t, 1, result.JobsImported)
	assert.Equal(t, 1, result.JobsScored)
	assert.Equal(t, 1, result.CandidatesSelected)
	assert.Equal(t, 1, result.JobsProcessed)

	require.Len(t, processor.candidates, 1)
	assert.Equal(t, "Job A", processor.candidates[0].Title)

	patches := runs.patches[result.RunID]
	require.Len(t, patches, 1)
	assert.Equal(t, types.RunStatusCompleted, *patches[0].Status)
	assert.Equal(t, 1, *patches[0].JobsProcessed)

	assert.Equal(t, EventRunCompleted, payload.Event)
	assert.Equal(t, result.RunID.String(), payload.RunID)

	assert.Equal(t, types.StepComplete, engine.Progress().Step)
	assert.False(t, engine.Status().IsRunning)
}

func TestStart_MutualExclusion(t *testing.T) {
	discoverer := &fakeDiscoverer{
		results: sourceResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	runs := &fakeRunStore{}
	engine := newTestEngine(Deps{
		Discoverer: discoverer,
		Jobs:       &fakeJobStore{},
		Runs:       runs,
		Scorer:     &fakeStageScorer{},
		Processor:  &fakeStageProcessor{},
	})

	done := make(chan error, 1)
	go func() {
		_, err := engine.Start(context.Background(), Overrides{})
		done <- err
	}()

	select {
	case <-discoverer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached discovery")
	}

	before := engine.Progress()
	_, err := engine.Start(context.Background(), Overrides{})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, before, engine.Progress(), "losing trigger must not touch progress")

	close(discoverer.release)
	require.NoError(t, <-done)

	runs.mu.Lock()
	defer runs.mu.Unlock()
	assert.Equal(t, 1, runs.created, "losing trigger must not create a run record")
}

func TestStartDetached_SecondTriggerRejectedBeforeSpawn(t *testing.T) {
	discoverer := &fakeDiscoverer{
		results: sourceResult(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	runs := &fakeRunStore{}
	engine := newTestEngine(Deps{
		Discoverer: discoverer,
		Jobs:       &fakeJobStore{},
		Runs:       runs,
		Scorer:     &fakeStageScorer{},
		Processor:  &fakeStageProcessor{},
	})

	require.NoError(t, engine.StartDetached(context.Background(), Overrides{}))

	// The slot is claimed before the background goroutine executes
	// anything, so a simultaneous second trigger loses right here.
	assert.ErrorIs(t, engine.StartDetached(context.Background(), Overrides{}), ErrAlreadyRunning)

	select {
	case <-discoverer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("detached run never reached discovery")
	}
	close(discoverer.release)

	assert.Eventually(t, func() bool { return !engine.Status().IsRunning }, 5*time.Second, 10*time.Millisecond)

	runs.mu.Lock()
	defer runs.mu.Unlock()
	assert.Equal(t, 1, runs.created, "losing trigger must not create a run record")
}

func TestStart_CompletionPersistFailureMarksProgressFailed(t *testing.T) {
	runs := &fakeRunStore{updateErr: errors.New("db down")}
	engine := newTestEngine(Deps{
		Discoverer: &fakeDiscoverer{results: sourceResult()},
		Jobs:       &fakeJobStore{},
		Runs:       runs,
		Scorer:     &fakeStageScorer{},
		Processor:  &fakeStageProcessor{},
	})

	_, err := engine.Start(context.Background(), Overrides{})
	require.ErrorContains(t, err, "failed to complete run")

	// Stream consumers watch for a terminal step; a run that cannot persist
	// completion still has to reach one.
	snapshot := engine.Progress()
	assert.Equal(t, types.StepFailed, snapshot.Step)
	assert.Contains(t, snapshot.Message, "db down")
	assert.False(t, engine.Status().IsRunning)
}

func TestStart_TotalDiscoveryFailure(t *testing.T) {
	var payload webhookPayload
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
	}))
	defer hook.Close()

	runs := &fakeRunStore{}
	jobs := &fakeJobStore{}
	engine := newTestEngine(Deps{
		Discoverer: &fakeDiscoverer{err: sources.ErrNoSourcesSucceeded},
		Jobs:       jobs,
		Runs:       runs,
		Scorer:     &fakeStageScorer{},
		Processor:  &fakeStageProcessor{},
		Notifier:   NewNotifier(hook.URL, zerolog.Nop()),
	})

	result, err := engine.Start(context.Background(), Overrides{})
	require.ErrorIs(t, err, sources.ErrNoSourcesSucceeded)

	assert.Zero(t, jobs.calls, "import must not run after total discovery failure")

	patches := runs.patches[result.RunID]
	require.Len(t, patches, 1)
	assert.Equal(t, types.RunStatusFailed, *patches[0].Status)
	assert.Contains(t, *patches[0].ErrorMessage, "discovery failed")

	assert.Equal(t, EventRunFailed, payload.Event)
	assert.Equal(t, types.StepFailed, engine.Progress().Step)
	assert.False(t, engine.Status().IsRunning, "slot released after failure")
}

func TestStart_PartialSourceFailureCompletes(t *testing.T) {
	jobB := scoredJob("Job B", 60)
	results := []sources.Result{
		{Source: "indeed", Err: assert.AnError},
		{Source: "linkedin", Jobs: []types.Job{jobB}},
	}

	runs := &fakeRunStore{}
	engine := newTestEngine(Deps{
		Discoverer: &fakeDiscoverer{results: results},
		Jobs:       &fakeJobStore{imported: db.ImportResult{Created: 1}, scoredJobs: []types.Job{jobB}},
		Runs:       runs,
		Scorer:     &fakeStageScorer{scored: 1},
		Processor:  &fakeStageProcessor{processed: 1},
	})

	result, err := engine.Start(context.Background(), Overrides{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.JobsFound, "only successful sources contribute jobs")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "indeed")

	patches := runs.patches[result.RunID]
	require.Len(t, patches, 1)
	assert.Equal(t, types.RunStatusCompleted, *patches[0].Status)
}

func TestStart_StageTogglesSkipStages(t *testing.T) {
	off := false
	runs := &fakeRunStore{}
	discoverer := &fakeDiscoverer{}
	scorer := &fakeStageScorer{}
	processor := &fakeStageProcessor{}

	cfg := config.Config{
		EnableCrawling:      &off,
		EnableScoring:       &off,
		EnableAutoTailoring: &off,
	}
	engine := NewEngine(cfg, &types.Profile{}, Deps{
		Discoverer: discoverer,
		Jobs:       &fakeJobStore{},
		Runs:       runs,
		Scorer:     scorer,
		Processor:  processor,
		Notifier:   NewNotifier("", zerolog.Nop()),
	}, zerolog.Nop())

	result, err := engine.Start(context.Background(), Overrides{})
	require.NoError(t, err)

	assert.Zero(t, discoverer.calls)
	assert.Zero(t, scorer.calls)
	assert.Zero(t, processor.calls)

	patches := runs.patches[result.RunID]
	require.Len(t, patches, 1)
	assert.Equal(t, types.RunStatusCompleted, *patches[0].Status)
}

func TestStart_ImportDisabledStillScores(t *testing.T) {
	off := false
	jobs := &fakeJobStore{scoredJobs: []types.Job{scoredJob("Job A", 70)}}
	scorer := &fakeStageScorer{scored: 1}

	cfg := config.Config{Sources: []string{"indeed"}, EnableImporting: &off}
	engine := NewEngine(cfg, &types.Profile{}, Deps{
		Discoverer: &fakeDiscoverer{results: sourceResult(scoredJob("Job A", 0))},
		Jobs:       jobs,
		Runs:       &fakeRunStore{},
		Scorer:     scorer,
		Processor:  &fakeStageProcessor{processed: 1},
		Notifier:   NewNotifier("", zerolog.Nop()),
	}, zerolog.Nop())

	_, err := engine.Start(context.Background(), Overrides{})
	require.NoError(t, err)

	assert.Zero(t, jobs.calls, "import stage skipped")
	assert.Equal(t, 1, scorer.calls)
}

func TestStart_OverridesApplyToSelection(t *testing.T) {
	jobs := &fakeJobStore{scoredJobs: []types.Job{
		scoredJob("top", 95),
		scoredJob("mid", 80),
		scoredJob("low", 40),
	}}
	processor := &fakeStageProcessor{processed: 1}

	engine := newTestEngine(Deps{
		Discoverer: &fakeDiscoverer{results: sourceResult()},
		Jobs:       jobs,
		Runs:       &fakeRunStore{},
		Scorer:     &fakeStageScorer{},
		Processor:  processor,
	})

	topN := 1
	minScore := 50.0
	force := true
	result, err := engine.Start(context.Background(), Overrides{TopN: &topN, MinScore: &minScore, Force: &force})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CandidatesSelected)
	require.Len(t, processor.candidates, 1)
	assert.Equal(t, "top", processor.candidates[0].Title)
	assert.True(t, processor.opts.Force)
}
