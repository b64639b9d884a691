// Package repository_test provides unit tests for the repository layer.
// Tests use pgxmock v4 injected into database.DB and follow table-driven patterns.
package repository_test

import (
	"testing"
	"time"

	"github.com/avissapr/roster/internal/database"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// mockDB replaces the global pool with a pgxmock pool for the duration of the test.
func mockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = mock
	t.Cleanup(func() {
		database.DB = oldDB
		mock.Close()
	})

	return mock
}

func intPtr(v int) *int { return &v }
