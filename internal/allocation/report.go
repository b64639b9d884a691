package allocation

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/avissapr/roster/internal/models"
	"gopkg.in/yaml.v3"
)

// TeamFill is a team's occupancy before and after a run.
type TeamFill struct {
	TeamID   int    `json:"team_id" yaml:"team_id"`
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	Before   int    `json:"before" yaml:"before"`
	After    int    `json:"after" yaml:"after"`
}

// Report summarizes one allocator run for persistence and audit.
type Report struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	Processed  int                  `json:"processed" yaml:"processed"`
	Assigned   int                  `json:"assigned" yaml:"assigned"`
	Waitlisted int                  `json:"waitlisted" yaml:"waitlisted"`
	Skipped    []SkippedApplication `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Teams      []TeamFill           `json:"teams" yaml:"teams"`
	Anomalies  []Anomaly            `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	Outcomes   []Outcome            `json:"outcomes" yaml:"outcomes"`
}

// NewReport builds the run report. teams is the snapshot the allocator ran
// against, so its Occupancy is the "before" value.
func NewReport(runID string, startedAt time.Time, teams []models.Team, eligibility Eligibility, res *Result) *Report {
	r := &Report{
		RunID:     runID,
		StartedAt: startedAt,
		Processed: len(res.Outcomes),
		Skipped:   eligibility.Skipped,
		Anomalies: res.Anomalies,
		Outcomes:  res.Outcomes,
	}

	for _, o := range res.Outcomes {
		switch o.Status {
		case models.StatusAssigned:
			r.Assigned++
		case models.StatusWaitlisted:
			r.Waitlisted++
		}
	}

	r.Teams = make([]TeamFill, 0, len(teams))
	for _, t := range teams {
		r.Teams = append(r.Teams, TeamFill{
			TeamID:   t.ID,
			Name:     t.Name,
			Capacity: t.Capacity,
			Before:   t.Occupancy,
			After:    res.Occupancy[t.ID],
		})
	}
	sort.Slice(r.Teams, func(i, j int) bool { return r.Teams[i].TeamID < r.Teams[j].TeamID })

	return r
}

// Updates returns one status/assignment change per processed application,
// in processing order.
func (r *Report) Updates() []models.PlacementUpdate {
	updates := make([]models.PlacementUpdate, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		updates = append(updates, models.PlacementUpdate{
			ApplicationID: o.ApplicationID,
			Status:        o.Status,
			TeamID:        o.TeamID,
		})
	}
	return updates
}

// WriteText writes the human-readable run log.
func (r *Report) WriteText(w io.Writer) error {
	names := make(map[int]string, len(r.Teams))
	for _, t := range r.Teams {
		names[t.TeamID] = t.Name
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Team assignment run %s\n", r.RunID)
	fmt.Fprintf(tw, "Started:\t%s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(tw, "Processed:\t%d\n", r.Processed)
	fmt.Fprintf(tw, "Assigned:\t%d\n", r.Assigned)
	fmt.Fprintf(tw, "Waitlisted:\t%d\n", r.Waitlisted)
	fmt.Fprintf(tw, "Skipped:\t%d\n", len(r.Skipped))

	fmt.Fprintln(tw, "\nTeams")
	for _, t := range r.Teams {
		fmt.Fprintf(tw, "  %s (#%d)\t%d/%d\t+%d\n", t.Name, t.TeamID, t.After, t.Capacity, t.After-t.Before)
	}

	if len(r.Anomalies) > 0 {
		fmt.Fprintln(tw, "\nAnomalies")
		for _, a := range r.Anomalies {
			fmt.Fprintf(tw, "  %s (#%d)\toccupancy %d exceeds capacity %d; treated as full\n",
				a.TeamName, a.TeamID, a.Occupancy, a.Capacity)
		}
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(tw, "\nSkipped")
		for _, s := range r.Skipped {
			fmt.Fprintf(tw, "  application #%d\t%s\n", s.ApplicationID, s.Reason)
		}
	}

	if len(r.Outcomes) > 0 {
		fmt.Fprintln(tw, "\nOutcomes")
		for _, o := range r.Outcomes {
			placement := o.Status
			if o.TeamID != nil {
				placement = fmt.Sprintf("%s -> %s (#%d)", o.Status, names[*o.TeamID], *o.TeamID)
			}
			fmt.Fprintf(tw, "  application #%d\t%s\t%s\n", o.ApplicationID, placement, o.Reason)
		}
	}

	return tw.Flush()
}

// Text returns the run log as a string.
func (r *Report) Text() string {
	var buf bytes.Buffer
	_ = r.WriteText(&buf)
	return buf.String()
}

// WriteYAML writes the structured form of the report.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
