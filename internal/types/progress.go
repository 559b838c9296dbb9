package types

// Step identifies the stage a pipeline run is currently in.
type Step string

const (
	StepIdle       Step = "idle"
	StepCrawling   Step = "crawling"
	StepImporting  Step = "importing"
	StepScoring    Step = "scoring"
	StepProcessing Step = "processing"
	StepComplete   Step = "complete"
	StepFailed     Step = "failed"
)

// ProgressSnapshot is the transient, in-memory view of the current run,
// polled by the UI. It is never persisted and reset at the start of each run.
type ProgressSnapshot struct {
	Step         Step   `json:"step"`
	SourcesTotal int    `json:"sources_total"`
	SourcesDone  int    `json:"sources_done"`
	JobsFound    int    `json:"jobs_found"`
	JobsImported int    `json:"jobs_imported"`
	JobsSkipped  int    `json:"jobs_skipped"`
	ScoreTotal   int    `json:"score_total"`
	JobsScored   int    `json:"jobs_scored"`
	ProcessTotal int    `json:"process_total"`
	JobsDone     int    `json:"jobs_done"`
	CurrentJob   string `json:"current_job,omitempty"`
	Message      string `json:"message,omitempty"`
}
