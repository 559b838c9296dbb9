// Package types defines the shared domain model for the job pipeline.
package types

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a job posting through its lifecycle.
type JobStatus string

const (
	// StatusDiscovered is the initial status after import.
	StatusDiscovered JobStatus = "discovered"
	// StatusProcessing marks a job whose document generation is in flight.
	StatusProcessing JobStatus = "processing"
	// StatusReady marks a job with a generated document, awaiting user action.
	StatusReady JobStatus = "ready"
	// StatusApplied, StatusRejected and StatusExpired are set by user actions,
	// never by the pipeline itself.
	StatusApplied  JobStatus = "applied"
	StatusRejected JobStatus = "rejected"
	StatusExpired  JobStatus = "expired"
)

// Job is a discovered posting and its tailoring artifacts.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Source      string     `json:"source"`
	SourceJobID string     `json:"source_job_id,omitempty"`
	JobURL      string     `json:"job_url"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	Salary      string     `json:"salary,omitempty"`
	Remote      bool       `json:"remote,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`

	Status            JobStatus `json:"status"`
	SuitabilityScore  *float64  `json:"suitability_score,omitempty"`
	SuitabilityReason string    `json:"suitability_reason,omitempty"`
	SponsorScore      *float64  `json:"sponsor_score,omitempty"`

	TailoredSummary    string   `json:"tailored_summary,omitempty"`
	TailoredHeadline   string   `json:"tailored_headline,omitempty"`
	TailoredSkills     []string `json:"tailored_skills,omitempty"`
	SelectedProjectIDs []string `json:"selected_project_ids,omitempty"`
	PDFPath            string   `json:"pdf_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DedupKey returns the stable identity used to detect re-discovered jobs:
// the source's own job ID when present, otherwise the posting URL.
func (j *Job) DedupKey() string {
	if j.SourceJobID != "" {
		return j.Source + "::" + j.SourceJobID
	}
	return j.JobURL
}

// HasScore reports whether the job carries a valid cached suitability score.
func (j *Job) HasScore() bool {
	return j.SuitabilityScore != nil && !math.IsNaN(*j.SuitabilityScore)
}

// HasTailoredContent reports whether phase-1 tailoring already produced output.
func (j *Job) HasTailoredContent() bool {
	return j.TailoredSummary != "" || j.TailoredHeadline != "" || len(j.TailoredSkills) > 0
}
