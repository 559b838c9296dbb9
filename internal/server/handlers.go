package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/job-pipeline/internal/db"
	"github.com/jonathan/job-pipeline/internal/pipeline"
)

// handleTriggerRun starts a pipeline run in the background. The response says
// only whether the trigger was accepted; clients follow along via the status
// and progress endpoints or the webhook.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	var overrides pipeline.Overrides
	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &overrides); err != nil {
				s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
				return
			}
		}
	}

	// The slot is claimed synchronously in the request path, so concurrent
	// triggers racing each other still get exactly one 202; the run itself
	// detaches from the request context and clients follow along via
	// status/progress.
	if err := s.engine.StartDetached(context.Background(), overrides); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			s.errorResponse(w, http.StatusConflict, err.Error())
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]bool{"started": true})
}

// handleStatus reports whether a run is active.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.engine.Status())
}

// handleProgress returns the current progress snapshot.
func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.engine.Progress())
}

// handleListRuns lists recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleListJobs lists imported jobs with optional filters.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	opts := db.ListJobsOptions{
		Status: r.URL.Query().Get("status"),
		Source: r.URL.Query().Get("source"),
		Limit:  parseIntParam(r, "limit", 50),
		Offset: parseIntParam(r, "offset", 0),
	}

	jobs, err := s.store.ListJobs(r.Context(), opts)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
