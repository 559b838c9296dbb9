package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/job-pipeline/internal/types"
)

// Webhook event names.
const (
	EventRunCompleted = "pipeline.completed"
	EventRunFailed    = "pipeline.failed"
)

// DefaultNotifyTimeout bounds the webhook POST. Notification is best-effort
// and must not hold up run teardown.
const DefaultNotifyTimeout = 10 * time.Second

type webhookPayload struct {
	Event          string    `json:"event"`
	SentAt         time.Time `json:"sent_at"`
	RunID          string    `json:"run_id"`
	JobsDiscovered int       `json:"jobs_discovered"`
	JobsScored     int       `json:"jobs_scored"`
	JobsProcessed  int       `json:"jobs_processed"`
	Error          string    `json:"error,omitempty"`
}

// Notifier delivers the end-of-run webhook. A nil or empty URL disables it.
type Notifier struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

func NewNotifier(url string, log zerolog.Logger) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: DefaultNotifyTimeout},
		log:    log,
	}
}

// Notify fires the webhook for a finished run. Called exactly once, after the
// terminal state is persisted. Delivery failures are warnings: the run
// outcome is already recorded and a flaky receiver must not fail the run.
func (n *Notifier) Notify(ctx context.Context, run *types.PipelineRun) {
	if n == nil || n.url == "" {
		return
	}

	event := EventRunCompleted
	if run.Status == types.RunStatusFailed {
		event = EventRunFailed
	}

	payload := webhookPayload{
		Event:          event,
		SentAt:         time.Now().UTC(),
		RunID:          run.ID.String(),
		JobsDiscovered: run.JobsDiscovered,
		JobsScored:     run.JobsScored,
		JobsProcessed:  run.JobsProcessed,
		Error:          run.ErrorMessage,
	}

	if err := n.post(ctx, payload); err != nil {
		n.log.Warn().
			Str("run_id", run.ID.String()).
			Str("event", event).
			Err(err).
			Msg("webhook notification failed")
		return
	}

	n.log.Info().
		Str("run_id", run.ID.String()).
		Str("event", event).
		Msg("webhook notified")
}

func (n *Notifier) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
