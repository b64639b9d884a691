// Package repository implements database access layer for Roster.
// This file handles member absence records.
package repository

import (
	"context"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/models"
)

// AbsenceRepository handles absence-related database operations.
type AbsenceRepository struct{}

// NewAbsenceRepository creates a new instance of AbsenceRepository.
func NewAbsenceRepository() *AbsenceRepository {
	return &AbsenceRepository{}
}

// Create inserts an absence record.
//
// Side Effects: Populates absence.ID and absence.CreatedAt with database values
func (r *AbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	query := `
		INSERT INTO absences (member_name, email, date, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return database.DB.QueryRow(ctx, query,
		absence.MemberName, absence.Email, absence.Date, absence.Reason,
	).Scan(&absence.ID, &absence.CreatedAt)
}

// ListAll retrieves all absences, most recent date first.
func (r *AbsenceRepository) ListAll(ctx context.Context) ([]models.Absence, error) {
	query := `
		SELECT id, member_name, email, date, reason, created_at
		FROM absences
		ORDER BY date DESC, id DESC
	`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var absences []models.Absence
	for rows.Next() {
		var a models.Absence
		if err := rows.Scan(&a.ID, &a.MemberName, &a.Email, &a.Date, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}

	return absences, rows.Err()
}

// Delete removes an absence record.
func (r *AbsenceRepository) Delete(ctx context.Context, id int) error {
	tag, err := database.DB.Exec(ctx, `DELETE FROM absences WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
