package repository_test

import (
	"context"
	"testing"

	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

// TestAuditRepository_Log tests audit log entry creation.
// Records admin actions for later review.
//
// Related: audit_repo.go:Log()
func TestAuditRepository_Log(t *testing.T) {
	mock := mockDB(t)

	// Arrange - Create variables first, then take pointers
	actorID := 1
	objectID := 5

	auditLog := &models.AuditLog{
		ActorID:    &actorID,
		Action:     "CREATE_TEAM",
		ObjectType: "team",
		ObjectID:   &objectID,
		IPAddress:  "192.168.1.1",
		UserAgent:  "Mozilla/5.0",
	}

	rows := pgxmock.NewRows([]string{"id", "created_at"}).
		AddRow(1, testTime)

	// Pass pointers directly in WithArgs
	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(auditLog.ActorID, "CREATE_TEAM", "team", auditLog.ObjectID, "192.168.1.1", "Mozilla/5.0").
		WillReturnRows(rows)

	// Act
	err := repository.NewAuditRepository().Log(context.Background(), auditLog)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, auditLog.ID)
	assert.Equal(t, testTime, auditLog.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAuditRepository_ListRecent tests retrieving recent audit entries.
// CLI-triggered runs have no actor, so actor_id may be NULL.
func TestAuditRepository_ListRecent(t *testing.T) {
	mock := mockDB(t)

	actorID := 1
	objectID := 5

	rows := pgxmock.NewRows([]string{
		"id", "actor_id", "action", "object_type", "object_id",
		"ip_address", "user_agent", "created_at",
	}).
		AddRow(2, (*int)(nil), "RUN_ASSIGNMENT", "assignment_run", (*int)(nil), "", "cli", testTime).
		AddRow(1, &actorID, "CREATE_TEAM", "team", &objectID, "192.168.1.1", "Mozilla/5.0", testTime)

	mock.ExpectQuery("SELECT(.+)FROM audit_logs(.+)ORDER BY created_at DESC").
		WithArgs(10).
		WillReturnRows(rows)

	// Act
	logs, err := repository.NewAuditRepository().ListRecent(context.Background(), 10)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "RUN_ASSIGNMENT", logs[0].Action)
	assert.Nil(t, logs[0].ActorID)
	assert.Equal(t, 1, *logs[1].ActorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
