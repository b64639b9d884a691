// Package services provides the business logic layer for Roster.
// This file runs the team allocator against the database: it snapshots
// applications and teams, computes placements, and commits them atomically.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avissapr/roster/internal/allocation"
	"github.com/avissapr/roster/internal/cache"
	"github.com/avissapr/roster/internal/models"
	"github.com/avissapr/roster/internal/repository"
	"github.com/avissapr/roster/internal/security"
	"github.com/google/uuid"
)

// ErrRunFailed wraps any failure that aborted a run. Nothing was committed.
var ErrRunFailed = errors.New("assignment run failed")

// ApplicationLister loads every application.
type ApplicationLister interface {
	ListAll(ctx context.Context) ([]models.Application, error)
}

// TeamLister loads every team with its occupancy.
type TeamLister interface {
	ListAll(ctx context.Context) ([]models.Team, error)
}

// RunCommitter persists a run's placements and record together.
type RunCommitter interface {
	Commit(ctx context.Context, run *models.AssignmentRun, updates []models.PlacementUpdate) error
}

// AuditLogger records admin actions.
type AuditLogger interface {
	Log(ctx context.Context, log *models.AuditLog) error
}

// Actor identifies who triggered an action. UserID is nil for the CLI.
type Actor struct {
	UserID    *int
	Email     string
	IPAddress string
	UserAgent string
}

// AssignmentService executes assignment runs.
type AssignmentService struct {
	apps   ApplicationLister
	teams  TeamLister
	runs   RunCommitter
	audit  AuditLogger
	guard  *RunGuard
	cache  cache.Cache
	logger *security.Logger

	now   func() time.Time
	newID func() string
}

// AssignmentDeps bundles AssignmentService's collaborators.
// Cache may be nil.
type AssignmentDeps struct {
	Applications ApplicationLister
	Teams        TeamLister
	Runs         RunCommitter
	Audit        AuditLogger
	Guard        *RunGuard
	Cache        cache.Cache
	Logger       *security.Logger
}

// NewAssignmentService wires the service over the PostgreSQL repositories.
func NewAssignmentService(guard *RunGuard, c cache.Cache, logger *security.Logger) *AssignmentService {
	return NewAssignmentServiceWithDeps(AssignmentDeps{
		Applications: repository.NewApplicationRepository(),
		Teams:        repository.NewTeamRepository(),
		Runs:         repository.NewRunRepository(),
		Audit:        repository.NewAuditRepository(),
		Guard:        guard,
		Cache:        c,
		Logger:       logger,
	})
}

// NewAssignmentServiceWithDeps wires the service over arbitrary collaborators.
func NewAssignmentServiceWithDeps(d AssignmentDeps) *AssignmentService {
	if d.Guard == nil {
		d.Guard = NewLocalRunGuard()
	}
	return &AssignmentService{
		apps:   d.Applications,
		teams:  d.Teams,
		runs:   d.Runs,
		audit:  d.Audit,
		guard:  d.Guard,
		cache:  d.Cache,
		logger: d.Logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// snapshot loads the current applications and teams and runs the allocator.
func (s *AssignmentService) snapshot(ctx context.Context, runID string, started time.Time) (*allocation.Report, error) {
	apps, err := s.apps.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}
	teams, err := s.teams.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	eligibility, snapshot, res := allocation.Run(apps, teams)
	return allocation.NewReport(runID, started, snapshot, eligibility, res), nil
}

// Preview computes what a run would do right now without committing anything.
func (s *AssignmentService) Preview(ctx context.Context) (*allocation.Report, error) {
	return s.snapshot(ctx, "preview", s.now())
}

// Run places every pending application and commits the result atomically.
//
// Error Cases:
//   - ErrRunInProgress: another run holds the lock; nothing was read
//   - ErrRunFailed: loading or committing failed; nothing was written.
//     Wraps repository.ErrStaleApplication when an application changed mid-run.
func (s *AssignmentService) Run(ctx context.Context, actor Actor) (*allocation.Report, error) {
	release, err := s.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	started := s.now()
	report, err := s.snapshot(ctx, s.newID(), started)
	if err != nil {
		return nil, s.fail(actor, "", err)
	}

	for _, a := range report.Anomalies {
		s.logger.Warn(fmt.Sprintf("team %q (#%d) occupancy %d exceeds capacity %d; treated as full",
			a.TeamName, a.TeamID, a.Occupancy, a.Capacity))
	}

	run := &models.AssignmentRun{
		ID:          report.RunID,
		TriggeredBy: actor.UserID,
		StartedAt:   started,
		FinishedAt:  s.now(),
		Processed:   report.Processed,
		Assigned:    report.Assigned,
		Waitlisted:  report.Waitlisted,
		Summary:     report.Text(),
	}
	if err := s.runs.Commit(ctx, run, report.Updates()); err != nil {
		return nil, s.fail(actor, report.RunID, err)
	}

	if err := s.audit.Log(ctx, &models.AuditLog{
		ActorID:    actor.UserID,
		Action:     "RUN_ASSIGNMENT",
		ObjectType: "assignment_run",
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		// The run itself is committed; a missing audit row must not undo it.
		s.logger.Error("failed to write audit log for run "+report.RunID, err)
	}

	s.logger.SecurityEvent(security.EventAssignmentRun, actor.UserID, actor.Email, actor.IPAddress, actor.UserAgent,
		map[string]interface{}{
			"run_id":     report.RunID,
			"processed":  report.Processed,
			"assigned":   report.Assigned,
			"waitlisted": report.Waitlisted,
			"skipped":    len(report.Skipped),
			"anomalies":  len(report.Anomalies),
		})

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.KeyDashboardStats, cache.KeyTeams); err != nil {
			s.logger.Warn("failed to invalidate cached views: " + err.Error())
		}
	}

	return report, nil
}

func (s *AssignmentService) fail(actor Actor, runID string, cause error) error {
	s.logger.Critical("assignment run failed", cause)
	s.logger.SecurityEvent(security.EventAssignmentRunFailed, actor.UserID, actor.Email, actor.IPAddress, actor.UserAgent,
		map[string]interface{}{"run_id": runID, "error": cause.Error()})
	return fmt.Errorf("%w: %w", ErrRunFailed, cause)
}
