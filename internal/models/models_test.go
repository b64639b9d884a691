// Package models_test provides unit tests for data model structures.
package models_test

import (
	"testing"

	"github.com/avissapr/roster/internal/models"
	"github.com/stretchr/testify/assert"
)

// TestTeam_Remaining verifies spare seats never go negative, including teams
// that were overfilled by manual status overrides.
func TestTeam_Remaining(t *testing.T) {
	tests := []struct {
		name      string
		team      models.Team
		remaining int
	}{
		{"empty team", models.Team{Capacity: 3}, 3},
		{"partially filled", models.Team{Capacity: 3, Occupancy: 1}, 2},
		{"exactly full", models.Team{Capacity: 2, Occupancy: 2}, 0},
		{"overfilled", models.Team{Capacity: 2, Occupancy: 5}, 0},
		{"zero capacity", models.Team{Capacity: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.remaining, tt.team.Remaining())
		})
	}
}

// TestValidStatus verifies the application status whitelist.
func TestValidStatus(t *testing.T) {
	assert.True(t, models.ValidStatus(models.StatusPending))
	assert.True(t, models.ValidStatus(models.StatusAssigned))
	assert.True(t, models.ValidStatus(models.StatusWaitlisted))
	assert.False(t, models.ValidStatus("approved"))
	assert.False(t, models.ValidStatus(""))
}
