package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-pipeline/internal/types"
)

// CreateRun creates a new pipeline run record in status running.
func (db *DB) CreateRun(ctx context.Context) (*types.PipelineRun, error) {
	var run types.PipelineRun
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pipeline_runs (status)
		 VALUES ($1)
		 RETURNING id, status, started_at, jobs_discovered, jobs_scored, jobs_processed`,
		types.RunStatusRunning,
	).Scan(&run.ID, &run.Status, &run.StartedAt,
		&run.JobsDiscovered, &run.JobsScored, &run.JobsProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// UpdateRun applies a partial update to a run record. Setting a terminal
// status also stamps completed_at.
func (db *DB) UpdateRun(ctx context.Context, id uuid.UUID, patch types.RunPatch) error {
	var sets []string
	args := []any{}
	argNum := 1

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}

	if patch.Status != nil {
		add("status", *patch.Status)
		if *patch.Status == types.RunStatusCompleted || *patch.Status == types.RunStatusFailed {
			sets = append(sets, "completed_at = NOW()")
		}
	}
	if patch.JobsDiscovered != nil {
		add("jobs_discovered", *patch.JobsDiscovered)
	}
	if patch.JobsScored != nil {
		add("jobs_scored", *patch.JobsScored)
	}
	if patch.JobsProcessed != nil {
		add("jobs_processed", *patch.JobsProcessed)
	}
	if patch.ErrorMessage != nil {
		add("error_message", *patch.ErrorMessage)
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE pipeline_runs SET %s WHERE id = $%d",
		strings.Join(sets, ", "), argNum)
	args = append(args, id)

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a pipeline run by ID, or nil if none exists.
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*types.PipelineRun, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, status, started_at, completed_at, jobs_discovered,
		        jobs_scored, jobs_processed, COALESCE(error_message, '')
		 FROM pipeline_runs WHERE id = $1`,
		id,
	)

	run, err := scanRun(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent pipeline runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]types.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, status, started_at, completed_at, jobs_discovered,
		        jobs_scored, jobs_processed, COALESCE(error_message, '')
		 FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []types.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*types.PipelineRun, error) {
	var run types.PipelineRun
	err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &run.CompletedAt,
		&run.JobsDiscovered, &run.JobsScored, &run.JobsProcessed, &run.ErrorMessage)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
