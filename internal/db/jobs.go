package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-pipeline/internal/types"
)

// ImportResult reports the outcome of a bulk insert.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

const jobColumns = `id, source, source_job_id, job_url, title, company, location,
	description, salary, remote, posted_at, status,
	suitability_score, suitability_reason, sponsor_score,
	tailored_summary, tailored_headline, tailored_skills,
	selected_project_ids, pdf_path, created_at, updated_at`

func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	var sourceJobID, location, description, salary *string
	var reason, summary, headline, pdfPath *string
	var skillsJSON, projectsJSON []byte

	err := row.Scan(&j.ID, &j.Source, &sourceJobID, &j.JobURL, &j.Title, &j.Company,
		&location, &description, &salary, &j.Remote, &j.PostedAt, &j.Status,
		&j.SuitabilityScore, &reason, &j.SponsorScore,
		&summary, &headline, &skillsJSON,
		&projectsJSON, &pdfPath, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if sourceJobID != nil {
		j.SourceJobID = *sourceJobID
	}
	if location != nil {
		j.Location = *location
	}
	if description != nil {
		j.Description = *description
	}
	if salary != nil {
		j.Salary = *salary
	}
	if reason != nil {
		j.SuitabilityReason = *reason
	}
	if summary != nil {
		j.TailoredSummary = *summary
	}
	if headline != nil {
		j.TailoredHeadline = *headline
	}
	if pdfPath != nil {
		j.PDFPath = *pdfPath
	}
	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &j.TailoredSkills)
	}
	if projectsJSON != nil {
		_ = json.Unmarshal(projectsJSON, &j.SelectedProjectIDs)
	}

	return &j, nil
}

// GetJobByDedupKey retrieves a job by its dedup key, or nil if none exists.
func (db *DB) GetJobByDedupKey(ctx context.Context, key string) (*types.Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE dedup_key = $1`, key)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job by dedup key: %w", err)
	}
	return job, nil
}

// GetJob retrieves a job by ID, or nil if none exists.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// BulkInsertJobs inserts discovered jobs, skipping any whose dedup key is
// already present. Existing records are never overwritten by re-discovery.
func (db *DB) BulkInsertJobs(ctx context.Context, jobs []types.Job) (ImportResult, error) {
	var result ImportResult

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed {
			_ = rErr
		}
	}()

	for i := range jobs {
		j := &jobs[i]
		tag, err := tx.Exec(ctx,
			`INSERT INTO jobs (source, source_job_id, job_url, dedup_key, title,
			                   company, location, description, salary, remote,
			                   posted_at, status)
			 VALUES ($1, nullif($2, ''), $3, $4, $5, $6, nullif($7, ''),
			         nullif($8, ''), nullif($9, ''), $10, $11, $12)
			 ON CONFLICT (dedup_key) DO NOTHING`,
			j.Source, j.SourceJobID, j.JobURL, j.DedupKey(), j.Title,
			j.Company, j.Location, j.Description, j.Salary, j.Remote,
			j.PostedAt, types.StatusDiscovered,
		)
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert job %s: %w", j.DedupKey(), err)
		}
		if tag.RowsAffected() == 0 {
			result.Skipped++
		} else {
			result.Created++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return result, nil
}

// ListUnscoredJobs retrieves discovered jobs that still lack a valid score.
// A NaN score (score <> score) counts as unscored.
func (db *DB) ListUnscoredJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE status = $1
		   AND (suitability_score IS NULL OR suitability_score <> suitability_score)
		 ORDER BY created_at ASC`,
		types.StatusDiscovered,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListScoredJobs retrieves discovered jobs carrying a valid score, in
// discovery order. The selector depends on this ordering for its tie-break.
func (db *DB) ListScoredJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE status = $1
		   AND suitability_score IS NOT NULL
		   AND suitability_score = suitability_score
		 ORDER BY created_at ASC`,
		types.StatusDiscovered,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListJobsOptions contains filters for listing jobs.
type ListJobsOptions struct {
	Status string
	Source string
	Limit  int
	Offset int
}

// ListJobs lists jobs with optional filters and pagination.
func (db *DB) ListJobs(ctx context.Context, opts ListJobsOptions) ([]types.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []any{}
	argNum := 1

	if opts.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, opts.Status)
		argNum++
	}
	if opts.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argNum)
		args = append(args, opts.Source)
		argNum++
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// UpdateJob applies a partial update to a job record. Nil patch fields are
// left unchanged.
func (db *DB) UpdateJob(ctx context.Context, id uuid.UUID, patch types.JobPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	argNum := 1

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.SuitabilityScore != nil {
		add("suitability_score", *patch.SuitabilityScore)
	}
	if patch.SuitabilityReason != nil {
		add("suitability_reason", *patch.SuitabilityReason)
	}
	if patch.SponsorScore != nil {
		add("sponsor_score", *patch.SponsorScore)
	}
	if patch.TailoredSummary != nil {
		add("tailored_summary", *patch.TailoredSummary)
	}
	if patch.TailoredHeadline != nil {
		add("tailored_headline", *patch.TailoredHeadline)
	}
	if patch.TailoredSkills != nil {
		skillsJSON, err := json.Marshal(patch.TailoredSkills)
		if err != nil {
			return fmt.Errorf("failed to marshal tailored skills: %w", err)
		}
		add("tailored_skills", skillsJSON)
	}
	if patch.SelectedProjectIDs != nil {
		projectsJSON, err := json.Marshal(patch.SelectedProjectIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal project selection: %w", err)
		}
		add("selected_project_ids", projectsJSON)
	}
	if patch.PDFPath != nil {
		add("pdf_path", *patch.PDFPath)
	}

	query := fmt.Sprintf("UPDATE jobs SET %s WHERE id = $%d", strings.Join(sets, ", "), argNum)
	args = append(args, id)

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// SetJobStatus updates only the status of a job.
func (db *DB) SetJobStatus(ctx context.Context, id uuid.UUID, status types.JobStatus) error {
	return db.UpdateJob(ctx, id, types.JobPatch{Status: &status})
}

func collectJobs(rows pgx.Rows) ([]types.Job, error) {
	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
