package service

import (
	"fmt"
	"time"

	"disputedesk/internal/domain/entity"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// StatisticsAggregator derives dashboard figures from a dispute list. It holds
// no state besides the location used for month bucketing and a clock.
type StatisticsAggregator struct {
	loc   *time.Location
	clock func() time.Time
}

func NewStatisticsAggregator(loc *time.Location, clock func() time.Time) *StatisticsAggregator {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &StatisticsAggregator{loc: loc, clock: clock}
}

func newStatusCounts() map[entity.DisputeStatus]int {
	counts := make(map[entity.DisputeStatus]int, len(entity.DisputeStatuses))
	for _, s := range entity.DisputeStatuses {
		counts[s] = 0
	}
	return counts
}

// StatusCounts returns a count for every recognized status. Disputes with an
// unrecognized status are not counted anywhere.
func (a *StatisticsAggregator) StatusCounts(disputes []*entity.Dispute) map[entity.DisputeStatus]int {
	counts := newStatusCounts()
	for _, d := range disputes {
		if d == nil || !d.Status.Valid() {
			continue
		}
		counts[d.Status]++
	}
	return counts
}

// MonthlyTrend buckets disputes by the short month name of createdAt,
// merging years. The second return value counts disputes without createdAt.
func (a *StatisticsAggregator) MonthlyTrend(disputes []*entity.Dispute) ([]entity.MonthlyTrend, int) {
	var buckets [12]*entity.MonthlyTrend
	undated := 0

	for _, d := range disputes {
		if d == nil {
			continue
		}
		if d.CreatedAt == nil || d.CreatedAt.IsZero() {
			undated++
			continue
		}
		m := d.CreatedAt.In(a.loc).Month() - 1
		if buckets[m] == nil {
			buckets[m] = &entity.MonthlyTrend{Month: monthNames[m], Counts: newStatusCounts()}
		}
		buckets[m].Total++
		if d.Status.Valid() {
			buckets[m].Counts[d.Status]++
		}
	}

	trend := make([]entity.MonthlyTrend, 0, 12)
	for _, b := range buckets {
		if b != nil {
			trend = append(trend, *b)
		}
	}
	return trend, undated
}

// AverageResolutionTime is the mean of resolvedAt - createdAt over resolved
// disputes that carry both timestamps, or zero when there are none.
func (a *StatisticsAggregator) AverageResolutionTime(disputes []*entity.Dispute) time.Duration {
	var total time.Duration
	n := 0
	for _, d := range disputes {
		if d == nil {
			continue
		}
		if elapsed, ok := d.ResolutionTime(); ok {
			total += elapsed
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func (a *StatisticsAggregator) Summarize(disputes []*entity.Dispute) *entity.DisputeStatistics {
	trend, undated := a.MonthlyTrend(disputes)
	avg := a.AverageResolutionTime(disputes)

	total := 0
	for _, d := range disputes {
		if d != nil {
			total++
		}
	}

	return &entity.DisputeStatistics{
		TotalDisputes:            total,
		StatusCounts:             a.StatusCounts(disputes),
		MonthlyTrend:             trend,
		Undated:                  undated,
		AverageResolutionTime:    avg,
		AverageResolutionMinutes: avg.Minutes(),
		AverageResolutionDisplay: FormatDuration(avg),
		ComputedAt:               a.clock().In(a.loc),
	}
}

// FormatDuration renders a resolution time the way the dashboard shows it:
// "N minutes" below an hour, "H hr M min" below a day, "D days H hrs" beyond.
func FormatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
	default:
		return fmt.Sprintf("%d days %d hrs", minutes/(24*60), (minutes%(24*60))/60)
	}
}
