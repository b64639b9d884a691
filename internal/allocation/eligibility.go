package allocation

import "github.com/avissapr/roster/internal/models"

// SkippedApplication is a pending application the filter left out of a run.
type SkippedApplication struct {
	ApplicationID int    `json:"application_id" yaml:"application_id"`
	Reason        string `json:"reason" yaml:"reason"`
}

// Eligibility is the outcome of filtering the application pool.
type Eligibility struct {
	Eligible []models.Application
	Skipped  []SkippedApplication
}

// Eligible returns the applications still awaiting placement: status pending
// with at least one ranked preference. Pending applications without
// preferences are reported in Skipped instead of failing the run.
// The input slice is neither reordered nor modified.
func Eligible(apps []models.Application) Eligibility {
	var e Eligibility
	for _, app := range apps {
		if app.Status != models.StatusPending {
			continue
		}
		if len(app.Preferences) == 0 {
			e.Skipped = append(e.Skipped, SkippedApplication{
				ApplicationID: app.ID,
				Reason:        "no team preferences",
			})
			continue
		}
		e.Eligible = append(e.Eligible, app)
	}
	return e
}

// DeriveOccupancy returns a copy of teams whose Occupancy is recounted from
// apps: the number of applications assigned to the team.
func DeriveOccupancy(apps []models.Application, teams []models.Team) []models.Team {
	counts := make(map[int]int, len(teams))
	for _, app := range apps {
		if app.Status == models.StatusAssigned && app.AssignedTeamID != nil {
			counts[*app.AssignedTeamID]++
		}
	}

	derived := make([]models.Team, len(teams))
	for i, t := range teams {
		t.Occupancy = counts[t.ID]
		derived[i] = t
	}
	return derived
}
