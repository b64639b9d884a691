// Package repository implements database access layer for Roster.
// This file persists team assignment runs.
package repository

import (
	"context"
	"fmt"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/models"
	"github.com/jackc/pgx/v5"
)

// RunRepository stores the outcome of assignment runs.
type RunRepository struct{}

// NewRunRepository creates a new instance of RunRepository.
func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

// Commit writes every placement update of a run together with the run record
// in a single transaction. Each update only applies to an application that is
// still pending; if any row has moved on since the snapshot was taken the whole
// batch is rolled back with ErrStaleApplication.
func (r *RunRepository) Commit(ctx context.Context, run *models.AssignmentRun, updates []models.PlacementUpdate) error {
	return database.WithTx(ctx, func(tx pgx.Tx) error {
		for _, u := range updates {
			tag, err := tx.Exec(ctx, `
				UPDATE applications
				SET status = $1, assigned_team_id = $2
				WHERE id = $3 AND status = 'pending'
			`, u.Status, u.TeamID, u.ApplicationID)
			if err != nil {
				return fmt.Errorf("failed to update application %d: %w", u.ApplicationID, err)
			}
			if tag.RowsAffected() != 1 {
				return fmt.Errorf("application %d: %w", u.ApplicationID, ErrStaleApplication)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO assignment_runs
				(id, triggered_by, started_at, finished_at, processed, assigned, waitlisted, summary)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, run.ID, run.TriggeredBy, run.StartedAt, run.FinishedAt,
			run.Processed, run.Assigned, run.Waitlisted, run.Summary)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		return nil
	})
}

// ListRecent retrieves the most recent runs without their summaries.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]models.AssignmentRun, error) {
	query := `
		SELECT id, triggered_by, started_at, finished_at, processed, assigned, waitlisted
		FROM assignment_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := database.DB.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AssignmentRun
	for rows.Next() {
		var run models.AssignmentRun
		if err := rows.Scan(
			&run.ID, &run.TriggeredBy, &run.StartedAt, &run.FinishedAt,
			&run.Processed, &run.Assigned, &run.Waitlisted,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetByID retrieves a run including its text summary.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.AssignmentRun, error) {
	query := `
		SELECT id, triggered_by, started_at, finished_at, processed, assigned, waitlisted, summary
		FROM assignment_runs
		WHERE id = $1
	`

	var run models.AssignmentRun
	err := database.DB.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.TriggeredBy, &run.StartedAt, &run.FinishedAt,
		&run.Processed, &run.Assigned, &run.Waitlisted, &run.Summary,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}
