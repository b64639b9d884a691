// Package allocation turns pending team applications into team memberships.
//
// The package is a pure function of its inputs: callers load applications and
// teams, call Run (or Eligible followed by Allocate), and persist the Report's
// updates themselves. Nothing here touches the database, so a run can be
// previewed, tested, or repeated without side effects.
//
// Placement is greedy first-come-first-served: applications are processed in
// submission order (ties broken by id) and each takes the first team in its
// ranked preference list that still has a free seat. Applications whose
// preferences are all full are waitlisted.
package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/avissapr/roster/internal/models"
)

// Cause explains why a preferred team was passed over.
type Cause string

const (
	// CauseFull means the team had no remaining capacity.
	CauseFull Cause = "full"
	// CauseUnavailable means the team id no longer exists.
	CauseUnavailable Cause = "unavailable"
)

// SkippedPreference is a ranked preference that could not take the applicant.
type SkippedPreference struct {
	Rank   int   `json:"rank" yaml:"rank"`
	TeamID int   `json:"team_id" yaml:"team_id"`
	Cause  Cause `json:"cause" yaml:"cause"`
}

// Outcome is the placement decision for one application.
// Rank is the 1-based preference rank of the assigned team, 0 when waitlisted.
type Outcome struct {
	ApplicationID int                 `json:"application_id" yaml:"application_id"`
	Status        string              `json:"status" yaml:"status"`
	TeamID        *int                `json:"team_id,omitempty" yaml:"team_id,omitempty"`
	Rank          int                 `json:"rank,omitempty" yaml:"rank,omitempty"`
	Skipped       []SkippedPreference `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason        string              `json:"reason" yaml:"reason"`
}

// Anomaly flags a team whose occupancy already exceeded its capacity before
// the run, usually after manual status overrides.
type Anomaly struct {
	TeamID    int    `json:"team_id" yaml:"team_id"`
	TeamName  string `json:"team_name" yaml:"team_name"`
	Capacity  int    `json:"capacity" yaml:"capacity"`
	Occupancy int    `json:"occupancy" yaml:"occupancy"`
}

// Result is what one allocator pass produced.
type Result struct {
	Outcomes  []Outcome
	Occupancy map[int]int // final occupancy per team id
	Anomalies []Anomaly
}

// Run filters apps, recounts team occupancy from the already-assigned
// applications in apps, and allocates the eligible ones.
func Run(apps []models.Application, teams []models.Team) (Eligibility, []models.Team, *Result) {
	snapshot := DeriveOccupancy(apps, teams)
	eligibility := Eligible(apps)
	return eligibility, snapshot, Allocate(eligibility.Eligible, snapshot)
}

// Allocate places each eligible application in the first team of its ranked
// preferences with remaining capacity, or waitlists it.
//
// Team occupancy is taken from teams as the starting point and updated as the
// pass assigns seats; remaining capacity never goes below zero. Neither
// argument is modified.
func Allocate(eligible []models.Application, teams []models.Team) *Result {
	res := &Result{Occupancy: make(map[int]int, len(teams))}
	remaining := make(map[int]int, len(teams))

	for _, t := range teams {
		res.Occupancy[t.ID] = t.Occupancy
		remaining[t.ID] = t.Remaining()
		if t.Occupancy > t.Capacity {
			res.Anomalies = append(res.Anomalies, Anomaly{
				TeamID:    t.ID,
				TeamName:  t.Name,
				Capacity:  t.Capacity,
				Occupancy: t.Occupancy,
			})
		}
	}
	sort.Slice(res.Anomalies, func(i, j int) bool {
		return res.Anomalies[i].TeamID < res.Anomalies[j].TeamID
	})

	ordered := Order(eligible)
	res.Outcomes = make([]Outcome, 0, len(ordered))
	for _, app := range ordered {
		res.Outcomes = append(res.Outcomes, place(app, remaining, res.Occupancy))
	}
	return res
}

// Order returns a copy of apps sorted by submission time, earliest first,
// with ties broken by ascending id.
func Order(apps []models.Application) []models.Application {
	ordered := make([]models.Application, len(apps))
	copy(ordered, apps)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
	return ordered
}

func place(app models.Application, remaining, occupancy map[int]int) Outcome {
	out := Outcome{ApplicationID: app.ID}

	for i, teamID := range app.Preferences {
		rank := i + 1
		left, exists := remaining[teamID]
		switch {
		case !exists:
			out.Skipped = append(out.Skipped, SkippedPreference{Rank: rank, TeamID: teamID, Cause: CauseUnavailable})
		case left <= 0:
			out.Skipped = append(out.Skipped, SkippedPreference{Rank: rank, TeamID: teamID, Cause: CauseFull})
		default:
			remaining[teamID] = left - 1
			occupancy[teamID]++

			assigned := teamID
			out.Status = models.StatusAssigned
			out.TeamID = &assigned
			out.Rank = rank
			out.Reason = assignedReason(rank, out.Skipped)
			return out
		}
	}

	out.Status = models.StatusWaitlisted
	out.Reason = waitlistedReason(len(app.Preferences), out.Skipped)
	return out
}

func assignedReason(rank int, skipped []SkippedPreference) string {
	reason := fmt.Sprintf("assigned to %s preference", ordinal(rank))
	if len(skipped) > 0 {
		reason += "; " + describe(skipped)
	}
	return reason
}

func waitlistedReason(total int, skipped []SkippedPreference) string {
	allFull := true
	for _, s := range skipped {
		if s.Cause != CauseFull {
			allFull = false
			break
		}
	}

	var head string
	switch {
	case allFull && total == 1:
		head = "waitlisted: only preference full"
	case allFull:
		head = fmt.Sprintf("waitlisted: all %d preferences full", total)
	default:
		head = "waitlisted: no preference available"
	}
	return head + "; " + describe(skipped)
}

func describe(skipped []SkippedPreference) string {
	parts := make([]string, len(skipped))
	for i, s := range skipped {
		parts[i] = fmt.Sprintf("#%d %s", s.Rank, s.Cause)
	}
	return strings.Join(parts, ", ")
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
