// Package repository implements database access layer for Roster.
// This file handles team applications submitted through the intake form.
package repository

import (
	"context"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/models"
	"github.com/jackc/pgx/v5"
)

// ApplicationRepository handles application-related database operations.
type ApplicationRepository struct{}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{}
}

const applicationColumns = `
		SELECT id, name, email, preferences, skills, submitted_at, status, assigned_team_id
		FROM applications
`

func scanApplication(row pgx.Row) (models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Preferences,
		&a.Skills,
		&a.SubmittedAt,
		&a.Status,
		&a.AssignedTeamID,
	)
	return a, err
}

func collectApplications(rows pgx.Rows) ([]models.Application, error) {
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Create inserts a submitted application with status pending.
//
// Side Effects: Populates app.ID, app.SubmittedAt and app.Status with database values
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (name, email, preferences, skills)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted_at, status
	`
	skills := app.Skills
	if skills == nil {
		skills = []string{}
	}
	return database.DB.QueryRow(ctx, query, app.Name, app.Email, app.Preferences, skills).
		Scan(&app.ID, &app.SubmittedAt, &app.Status)
}

// ListAll retrieves every application in processing order
// (submission time, then id).
func (r *ApplicationRepository) ListAll(ctx context.Context) ([]models.Application, error) {
	rows, err := database.DB.Query(ctx, applicationColumns+` ORDER BY submitted_at, id`)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ListByStatus retrieves applications with the given status in processing order.
func (r *ApplicationRepository) ListByStatus(ctx context.Context, status string) ([]models.Application, error) {
	rows, err := database.DB.Query(ctx, applicationColumns+` WHERE status = $1 ORDER BY submitted_at, id`, status)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// GetByID retrieves a single application.
// Returns ErrNotFound when the application does not exist.
func (r *ApplicationRepository) GetByID(ctx context.Context, id int) (*models.Application, error) {
	a, err := scanApplication(database.DB.QueryRow(ctx, applicationColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// SetStatus applies an admin's manual status override.
// teamID is stored only for status assigned; other statuses clear it.
func (r *ApplicationRepository) SetStatus(ctx context.Context, id int, status string, teamID *int) error {
	if status != models.StatusAssigned {
		teamID = nil
	}

	tag, err := database.DB.Exec(ctx,
		`UPDATE applications SET status = $1, assigned_team_id = $2 WHERE id = $3`,
		status, teamID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, id int) error {
	tag, err := database.DB.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
