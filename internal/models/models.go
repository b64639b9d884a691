// Package models defines the domain entities and data transfer objects for Roster.
// It includes database models mapped to PostgreSQL tables, form DTOs for user input,
// and view models for API responses.
package models

import "time"

// Application status values.
// An application starts pending and leaves that state exactly once per run,
// either through the allocator or through an admin override.
const (
	StatusPending    = "pending"
	StatusAssigned   = "assigned"
	StatusWaitlisted = "waitlisted"
)

// MaxPreferences is the longest ranked preference list an applicant may submit.
const MaxPreferences = 9

// ValidStatus reports whether s is one of the application status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAssigned, StatusWaitlisted:
		return true
	}
	return false
}

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// User represents an admin console account.
//
// Database Table: users
// Security Note: PasswordHash should never be exposed in API responses or logs
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"` // "admin" or "officer"
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Application is a candidate's request to join a team.
// Preferences holds team ids in rank order (index 0 is the first choice).
//
// Database Table: applications
// Related: Team (many-to-one through assigned_team_id)
type Application struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Preferences    []int     `db:"preferences" json:"preferences"`
	Skills         []string  `db:"skills" json:"skills"`
	SubmittedAt    time.Time `db:"submitted_at" json:"submitted_at"`
	Status         string    `db:"status" json:"status"`
	AssignedTeamID *int      `db:"assigned_team_id" json:"assigned_team_id,omitempty"`
}

// Team is a capacity-bounded placement bucket.
// Occupancy is never stored: repositories compute it from assigned applications.
//
// Database Table: teams
type Team struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	Capacity       int       `db:"capacity" json:"capacity"`
	RequiredSkills string    `db:"required_skills" json:"required_skills"`
	Occupancy      int       `db:"occupancy" json:"occupancy"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Remaining returns the spare seats on the team, never negative.
func (t Team) Remaining() int {
	if t.Occupancy >= t.Capacity {
		return 0
	}
	return t.Capacity - t.Occupancy
}

// Absence records a member's reported absence from an organization event.
//
// Database Table: absences
type Absence struct {
	ID         int       `db:"id" json:"id"`
	MemberName string    `db:"member_name" json:"member_name"`
	Email      string    `db:"email" json:"email"`
	Date       time.Time `db:"date" json:"date"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AssignmentRun is the persisted audit record of one allocator run.
// Summary holds the plain-text run log offered for download.
//
// Database Table: assignment_runs
type AssignmentRun struct {
	ID          string    `db:"id" json:"id"`
	TriggeredBy *int      `db:"triggered_by" json:"triggered_by,omitempty"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	FinishedAt  time.Time `db:"finished_at" json:"finished_at"`
	Processed   int       `db:"processed" json:"processed"`
	Assigned    int       `db:"assigned" json:"assigned"`
	Waitlisted  int       `db:"waitlisted" json:"waitlisted"`
	Summary     string    `db:"summary" json:"-"`
}

// AuditLog represents an audit trail entry for admin actions.
//
// Database Table: audit_logs
type AuditLog struct {
	ID         int       `json:"id"`
	ActorID    *int      `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	ObjectID   *int      `json:"object_id,omitempty"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

// ============================================================================
// Data Transfer Objects (DTOs) - Form Input
// ============================================================================

// ApplicationForm is the public intake form.
type ApplicationForm struct {
	Name        string   `json:"name" form:"name"`
	Email       string   `json:"email" form:"email"`
	Preferences []int    `json:"preferences" form:"preferences"`
	Skills      []string `json:"skills" form:"skills"`
}

// TeamForm creates or edits a team.
type TeamForm struct {
	Name           string `json:"name" form:"name"`
	Description    string `json:"description" form:"description"`
	Capacity       int    `json:"capacity" form:"capacity"`
	RequiredSkills string `json:"required_skills" form:"required_skills"`
}

// StatusOverrideForm is an admin's manual change of an application's status.
// TeamID is required when Status is "assigned" and ignored otherwise.
type StatusOverrideForm struct {
	Status string `json:"status" form:"status"`
	TeamID *int   `json:"team_id" form:"team_id"`
}

// AbsenceForm records a member absence.
type AbsenceForm struct {
	MemberName string `json:"member_name" form:"member_name"`
	Email      string `json:"email" form:"email"`
	Date       string `json:"date" form:"date"` // 2006-01-02
	Reason     string `json:"reason" form:"reason"`
}

// PlacementUpdate is one persisted outcome of an allocator run.
type PlacementUpdate struct {
	ApplicationID int
	Status        string
	TeamID        *int
}

// ============================================================================
// View Models - API Responses
// ============================================================================

// RosterEntry is one member line on a team roster.
type RosterEntry struct {
	ApplicationID int       `json:"application_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Skills        []string  `json:"skills"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
