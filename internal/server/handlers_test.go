package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pipeline/internal/db"
	"github.com/jonathan/job-pipeline/internal/pipeline"
	"github.com/jonathan/job-pipeline/internal/types"
)

type fakeEngine struct {
	running  bool
	snapshot types.ProgressSnapshot
	started  chan pipeline.Overrides
	startErr error
}

func (f *fakeEngine) StartDetached(_ context.Context, overrides pipeline.Overrides) error {
	if f.startErr != nil {
		return f.startErr
	}
	if f.started != nil {
		f.started <- overrides
	}
	return nil
}

func (f *fakeEngine) Status() pipeline.Status {
	return pipeline.Status{IsRunning: f.running}
}

func (f *fakeEngine) Progress() types.ProgressSnapshot {
	return f.snapshot
}

type fakeReadStore struct {
	runs    []types.PipelineRun
	run     *types.PipelineRun
	jobs    []types.Job
	jobOpts db.ListJobsOptions
}

func (f *fakeReadStore) GetRun(_ context.Context, _ uuid.UUID) (*types.PipelineRun, error) {
	return f.run, nil
}

func (f *fakeReadStore) ListRuns(_ context.Context, _ int) ([]types.PipelineRun, error) {
	return f.runs, nil
}

func (f *fakeReadStore) ListJobs(_ context.Context, opts db.ListJobsOptions) ([]types.Job, error) {
	f.jobOpts = opts
	return f.jobs, nil
}

func newTestServer(engine Engine, store Store) *Server {
	return New(Config{Port: 0}, engine, store, zerolog.Nop())
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeEngine{}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleTriggerRun_Accepted(t *testing.T) {
	engine := &fakeEngine{started: make(chan pipeline.Overrides, 1)}
	s := newTestServer(engine, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodPost, "/pipeline/run", `{"search_term": "golang", "top_n": 5}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"started":true}`, rec.Body.String())

	select {
	case overrides := <-engine.started:
		assert.Equal(t, "golang", overrides.SearchTerm)
		require.NotNil(t, overrides.TopN)
		assert.Equal(t, 5, *overrides.TopN)
	case <-time.After(5 * time.Second):
		t.Fatal("engine was never started")
	}
}

func TestHandleTriggerRun_EmptyBody(t *testing.T) {
	engine := &fakeEngine{started: make(chan pipeline.Overrides, 1)}
	s := newTestServer(engine, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodPost, "/pipeline/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case overrides := <-engine.started:
		assert.Equal(t, pipeline.Overrides{}, overrides)
	case <-time.After(5 * time.Second):
		t.Fatal("engine was never started")
	}
}

func TestHandleTriggerRun_ConflictWhileRunning(t *testing.T) {
	// The losing trigger must learn about the active run in the request
	// path, not from a detached goroutine that already answered 202.
	s := newTestServer(&fakeEngine{startErr: pipeline.ErrAlreadyRunning}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodPost, "/pipeline/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in progress")
}

func TestHandleTriggerRun_InvalidBody(t *testing.T) {
	s := newTestServer(&fakeEngine{}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodPost, "/pipeline/run", `{"top_n": "lots"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(&fakeEngine{running: true}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodGet, "/pipeline/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_running":true}`, rec.Body.String())
}

func TestHandleProgress(t *testing.T) {
	engine := &fakeEngine{snapshot: types.ProgressSnapshot{Step: types.StepScoring, JobsScored: 3, ScoreTotal: 9}}
	s := newTestServer(engine, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodGet, "/pipeline/progress", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot types.ProgressSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, types.StepScoring, snapshot.Step)
	assert.Equal(t, 3, snapshot.JobsScored)
}

func TestHandleProgressStream_TerminalStepEndsStream(t *testing.T) {
	engine := &fakeEngine{snapshot: types.ProgressSnapshot{Step: types.StepComplete, JobsDone: 2}}
	s := newTestServer(engine, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodGet, "/pipeline/progress/stream", "")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, `"step":"complete"`)
}

func TestHandleListRuns(t *testing.T) {
	store := &fakeReadStore{runs: []types.PipelineRun{{ID: uuid.New(), Status: types.RunStatusCompleted}}}
	s := newTestServer(&fakeEngine{}, store)

	rec := doRequest(t, s, http.MethodGet, "/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs []types.PipelineRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Runs, 1)
}

func TestHandleGetRun(t *testing.T) {
	run := &types.PipelineRun{ID: uuid.New(), Status: types.RunStatusFailed, ErrorMessage: "boom"}
	s := newTestServer(&fakeEngine{}, &fakeReadStore{run: run})

	rec := doRequest(t, s, http.MethodGet, "/runs/"+run.ID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestHandleGetRun_NotFound(t *testing.T) {
	s := newTestServer(&fakeEngine{}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodGet, "/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetRun_BadID(t *testing.T) {
	s := newTestServer(&fakeEngine{}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodGet, "/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListJobs_Filters(t *testing.T) {
	store := &fakeReadStore{}
	s := newTestServer(&fakeEngine{}, store)

	rec := doRequest(t, s, http.MethodGet, "/jobs?status=ready&source=linkedin&limit=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", store.jobOpts.Status)
	assert.Equal(t, "linkedin", store.jobOpts.Source)
	assert.Equal(t, 10, store.jobOpts.Limit)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeEngine{}, &fakeReadStore{})

	rec := doRequest(t, s, http.MethodOptions, "/pipeline/run", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
