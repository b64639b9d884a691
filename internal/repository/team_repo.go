// Package repository implements database access layer for Roster.
// This file handles team management and team rosters.
package repository

import (
	"context"
	"fmt"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/models"
	"github.com/jackc/pgx/v5"
)

// TeamRepository handles team-related database operations.
// Occupancy is always computed from assigned applications, never stored.
type TeamRepository struct{}

// NewTeamRepository creates a new instance of TeamRepository.
func NewTeamRepository() *TeamRepository {
	return &TeamRepository{}
}

const teamColumns = `
		SELECT t.id, t.name, t.description, t.capacity, t.required_skills, t.created_at,
		       COUNT(a.id) FILTER (WHERE a.status = 'assigned') AS occupancy
		FROM teams t
		LEFT JOIN applications a ON a.assigned_team_id = t.id
`

func scanTeam(row pgx.Row) (models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Capacity, &t.RequiredSkills, &t.CreatedAt, &t.Occupancy)
	return t, err
}

// ListAll retrieves all teams with their current occupancy, ordered by name.
//
// Database: LEFT JOIN with applications to count assigned members
func (r *TeamRepository) ListAll(ctx context.Context) ([]models.Team, error) {
	query := teamColumns + `
		GROUP BY t.id
		ORDER BY t.name
	`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// GetByID retrieves a single team with its occupancy.
// Returns ErrNotFound when the team does not exist.
func (r *TeamRepository) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	query := teamColumns + `
		WHERE t.id = $1
		GROUP BY t.id
	`

	t, err := scanTeam(database.DB.QueryRow(ctx, query, teamID))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create inserts a new team.
//
// Side Effects: Populates team.ID and team.CreatedAt with database values
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, description, capacity, required_skills)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return database.DB.QueryRow(ctx, query,
		team.Name, team.Description, team.Capacity, team.RequiredSkills,
	).Scan(&team.ID, &team.CreatedAt)
}

// Update edits a team's name, description, capacity, and required skills.
// Lowering capacity below the current occupancy is allowed; the next
// assignment run reports the team as over capacity and treats it as full.
func (r *TeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $1, description = $2, capacity = $3, required_skills = $4
		WHERE id = $5
	`
	tag, err := database.DB.Exec(ctx, query,
		team.Name, team.Description, team.Capacity, team.RequiredSkills, team.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a team. Applications assigned to it go back to pending with
// no team so the next run can place them again; any other application still
// referencing the team has the reference cleared. Both happen in one transaction.
//
// Returns the number of applications whose team reference was cleared.
func (r *TeamRepository) Delete(ctx context.Context, teamID int) (int64, error) {
	var released int64

	err := database.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE applications
			SET status = CASE WHEN status = 'assigned' THEN 'pending' ELSE status END,
			    assigned_team_id = NULL
			WHERE assigned_team_id = $1
		`, teamID)
		if err != nil {
			return fmt.Errorf("failed to release team members: %w", err)
		}
		released = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
		if err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return released, nil
}

// Roster lists the members assigned to a team, earliest submission first.
func (r *TeamRepository) Roster(ctx context.Context, teamID int) ([]models.RosterEntry, error) {
	query := `
		SELECT id, name, email, skills, submitted_at
		FROM applications
		WHERE assigned_team_id = $1 AND status = 'assigned'
		ORDER BY submitted_at, id
	`

	rows, err := database.DB.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.ApplicationID, &e.Name, &e.Email, &e.Skills, &e.SubmittedAt); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}

	return roster, rows.Err()
}
