package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var teamRowColumns = []string{"id", "name", "description", "capacity", "required_skills", "created_at", "occupancy"}

// TestTeamRepository_ListAll verifies teams are returned with computed occupancy.
func TestTeamRepository_ListAll(t *testing.T) {
	mock := mockDB(t)

	rows := pgxmock.NewRows(teamRowColumns).
		AddRow(2, "Design", "Posters and merch", 4, "figma", testTime, 3).
		AddRow(1, "Robotics", "Competition bot", 6, "", testTime, 0)

	mock.ExpectQuery("SELECT(.+)FROM teams t LEFT JOIN applications a(.+)GROUP BY t.id ORDER BY t.name").
		WillReturnRows(rows)

	teams, err := repository.NewTeamRepository().ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Design", teams[0].Name)
	assert.Equal(t, 3, teams[0].Occupancy)
	assert.Equal(t, 1, teams[0].Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_GetByID(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(pgxmock.PgxPoolIface)
		expectErr error
	}{
		{
			name: "found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT(.+)FROM teams t(.+)WHERE t.id = \\$1").
					WithArgs(7).
					WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(7, "Web", "", 3, "", testTime, 1))
			},
		},
		{
			name: "missing team maps to ErrNotFound",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT(.+)FROM teams t(.+)WHERE t.id = \\$1").
					WithArgs(7).
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: repository.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mockDB(t)
			tt.mockSetup(mock)

			team, err := repository.NewTeamRepository().GetByID(context.Background(), 7)

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, team)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Web", team.Name)
				assert.Equal(t, 1, team.Occupancy)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTeamRepository_Create(t *testing.T) {
	mock := mockDB(t)

	mock.ExpectQuery("INSERT INTO teams").
		WithArgs("Robotics", "Competition bot", 6, "soldering").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(3, testTime))

	team := &models.Team{Name: "Robotics", Description: "Competition bot", Capacity: 6, RequiredSkills: "soldering"}
	err := repository.NewTeamRepository().Create(context.Background(), team)

	assert.NoError(t, err)
	assert.Equal(t, 3, team.ID)
	assert.Equal(t, testTime, team.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository_Update(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		mock := mockDB(t)
		mock.ExpectExec("UPDATE teams").
			WithArgs("Robotics", "", 8, "", 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repository.NewTeamRepository().Update(context.Background(), &models.Team{ID: 3, Name: "Robotics", Capacity: 8})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock := mockDB(t)
		mock.ExpectExec("UPDATE teams").
			WithArgs("Robotics", "", 8, "", 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repository.NewTeamRepository().Update(context.Background(), &models.Team{ID: 3, Name: "Robotics", Capacity: 8})

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

// TestTeamRepository_Delete verifies members are released and the team is
// removed in one transaction, and that a failed delete rolls everything back.
func TestTeamRepository_Delete(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(pgxmock.PgxPoolIface)
		released  int64
		expectErr error
	}{
		{
			name: "releases members and deletes",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE applications SET status = CASE").
					WithArgs(4).
					WillReturnResult(pgxmock.NewResult("UPDATE", 3))
				mock.ExpectExec("DELETE FROM teams").
					WithArgs(4).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectCommit()
			},
			released: 3,
		},
		{
			name: "unknown team rolls back",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE applications SET status = CASE").
					WithArgs(4).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectExec("DELETE FROM teams").
					WithArgs(4).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
				mock.ExpectRollback()
			},
			expectErr: repository.ErrNotFound,
		},
		{
			name: "release failure rolls back",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE applications SET status = CASE").
					WithArgs(4).
					WillReturnError(errors.New("deadlock detected"))
				mock.ExpectRollback()
			},
			expectErr: errors.New("failed to release team members: deadlock detected"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mockDB(t)
			tt.mockSetup(mock)

			released, err := repository.NewTeamRepository().Delete(context.Background(), 4)

			if tt.expectErr != nil {
				require.Error(t, err)
				if errors.Is(tt.expectErr, repository.ErrNotFound) {
					assert.ErrorIs(t, err, repository.ErrNotFound)
				} else {
					assert.EqualError(t, err, tt.expectErr.Error())
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.released, released)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTeamRepository_Roster(t *testing.T) {
	mock := mockDB(t)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "skills", "submitted_at"}).
		AddRow(11, "Ada", "ada@example.edu", []string{"go", "sql"}, testTime).
		AddRow(12, "Lin", "lin@example.edu", []string{}, testTime)

	mock.ExpectQuery("SELECT(.+)FROM applications WHERE assigned_team_id = \\$1 AND status = 'assigned'").
		WithArgs(2).
		WillReturnRows(rows)

	roster, err := repository.NewTeamRepository().Roster(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Ada", roster[0].Name)
	assert.Equal(t, []string{"go", "sql"}, roster[0].Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}
