package entity

import "time"

type MonthlyTrend struct {
	Month  string                `json:"month"`
	Counts map[DisputeStatus]int `json:"counts"`
	Total  int                   `json:"total"`
}

type DisputeStatistics struct {
	TotalDisputes int                   `json:"total_disputes"`
	StatusCounts  map[DisputeStatus]int `json:"status_counts"`
	MonthlyTrend  []MonthlyTrend        `json:"monthly_trend"`
	// Disputes with no usable createdAt; they fall in no month bucket.
	Undated int `json:"undated"`

	AverageResolutionTime    time.Duration `json:"-"`
	AverageResolutionMinutes float64       `json:"average_resolution_minutes"`
	AverageResolutionDisplay string        `json:"average_resolution_display"`

	ComputedAt time.Time `json:"computed_at"`
}

// DashboardSnapshot pairs one live dispute-list snapshot with statistics
// recomputed from exactly that snapshot.
type DashboardSnapshot struct {
	Disputes   []*Dispute         `json:"disputes"`
	Statistics *DisputeStatistics `json:"statistics"`
}
