package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/job-pipeline/internal/types"
)

// progressPollInterval is how often the SSE stream samples the snapshot.
const progressPollInterval = time.Second

// SSEWriter helps write Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleProgressStream streams progress snapshots as SSE until the run
// reaches a terminal step or the client disconnects. Every tick sends the
// latest snapshot; there is no event history to replay.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	// Always send the current state first so clients render immediately.
	snapshot := s.engine.Progress()
	if err := sse.WriteEvent("progress", snapshot); err != nil {
		return
	}
	if isTerminalStep(snapshot.Step) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			snapshot = s.engine.Progress()
			if err := sse.WriteEvent("progress", snapshot); err != nil {
				return
			}
			if isTerminalStep(snapshot.Step) {
				return
			}
		}
	}
}

func isTerminalStep(step types.Step) bool {
	return step == types.StepComplete || step == types.StepFailed
}
