// Package repository implements database access layer for Roster.
// This file provides statistical aggregation queries for dashboard displays.
package repository

import (
	"context"

	"github.com/avissapr/roster/internal/database"
)

// StatsRepository handles statistical queries for dashboard displays.
type StatsRepository struct{}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// DashboardStats represents aggregated statistics for the admin dashboard.
type DashboardStats struct {
	TotalApplications int     `json:"total_applications"`
	PendingCount      int     `json:"pending_count"`
	AssignedCount     int     `json:"assigned_count"`
	WaitlistedCount   int     `json:"waitlisted_count"`
	TotalTeams        int     `json:"total_teams"`
	TotalCapacity     int     `json:"total_capacity"`
	FillRate          float64 `json:"fill_rate"` // Assigned seats as a percentage of total capacity (0-100)
}

// GetDashboardStats retrieves aggregated statistics for the admin dashboard.
//
// Database: Single query with FILTER aggregations on applications plus team subqueries
func (r *StatsRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	query := `
		SELECT
			COUNT(a.id) AS total_applications,
			COUNT(a.id) FILTER (WHERE a.status = 'pending') AS pending_count,
			COUNT(a.id) FILTER (WHERE a.status = 'assigned') AS assigned_count,
			COUNT(a.id) FILTER (WHERE a.status = 'waitlisted') AS waitlisted_count,
			(SELECT COUNT(*) FROM teams) AS total_teams,
			(SELECT COALESCE(SUM(capacity), 0) FROM teams) AS total_capacity
		FROM applications a
	`

	stats := &DashboardStats{}
	err := database.DB.QueryRow(ctx, query).Scan(
		&stats.TotalApplications,
		&stats.PendingCount,
		&stats.AssignedCount,
		&stats.WaitlistedCount,
		&stats.TotalTeams,
		&stats.TotalCapacity,
	)
	if err != nil {
		return nil, err
	}

	if stats.TotalCapacity > 0 {
		stats.FillRate = float64(stats.AssignedCount) / float64(stats.TotalCapacity) * 100
	}

	return stats, nil
}
