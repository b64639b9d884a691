// Package repository implements database access layer for Roster.
// This file implements the audit trail of admin actions.
package repository

import (
	"context"

	"github.com/avissapr/roster/internal/database"
	"github.com/avissapr/roster/internal/models"
)

// AuditRepository handles all database operations related to audit logging.
//
// Immutability Note:
//
//	Audit logs are never modified or deleted once created.
type AuditRepository struct{}

// NewAuditRepository creates and returns a new AuditRepository instance.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Log creates a new audit log entry.
// Called after every admin mutation: team changes, status overrides,
// deletions, and assignment runs.
//
// Side Effects:
//   - Sets log.ID to the generated audit log ID
//   - Sets log.CreatedAt to the server timestamp
//
// Common Action Types:
//   - "CREATE_TEAM", "UPDATE_TEAM", "DELETE_TEAM"
//   - "OVERRIDE_STATUS", "DELETE_APPLICATION"
//   - "RUN_ASSIGNMENT"
func (r *AuditRepository) Log(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (actor_id, action, object_type, object_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return database.DB.QueryRow(ctx, query,
		log.ActorID, log.Action, log.ObjectType, log.ObjectID, log.IPAddress, log.UserAgent,
	).Scan(&log.ID, &log.CreatedAt)
}

// ListRecent retrieves the most recent audit log entries, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - limit: Maximum number of entries to retrieve (typically 50-500)
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, object_type, object_id, ip_address, user_agent, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := database.DB.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID, // NULL for CLI-triggered actions
			&entry.Action,
			&entry.ObjectType,
			&entry.ObjectID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}
