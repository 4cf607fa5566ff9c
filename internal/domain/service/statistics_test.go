package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputedesk/internal/domain/entity"
)

func at(t time.Time) *time.Time { return &t }

func fixedClock() time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func TestAverageResolutionTime(t *testing.T) {
	agg := NewStatisticsAggregator(time.UTC, fixedClock)
	created := time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), agg.AverageResolutionTime(nil))

	disputes := []*entity.Dispute{
		{ID: "a", Status: entity.StatusResolved, CreatedAt: at(created), ResolvedAt: at(created.Add(90 * time.Minute))},
		// Not resolved: ignored even though resolvedAt is present.
		{ID: "b", Status: entity.StatusOpen, CreatedAt: at(created), ResolvedAt: at(created.Add(10 * time.Hour))},
		// Resolved without createdAt: ignored.
		{ID: "c", Status: entity.StatusResolved, ResolvedAt: at(created)},
	}
	avg := agg.AverageResolutionTime(disputes)
	assert.Equal(t, 90*time.Minute, avg)
	assert.Equal(t, 90.0, avg.Minutes())

	stats := agg.Summarize(disputes)
	assert.Equal(t, 90.0, stats.AverageResolutionMinutes)
	assert.Equal(t, "1 hr 30 min", stats.AverageResolutionDisplay)
}

func TestStatusCountsIncludesEveryStatus(t *testing.T) {
	agg := NewStatisticsAggregator(nil, nil)
	counts := agg.StatusCounts([]*entity.Dispute{
		{Status: entity.StatusNew},
		{Status: entity.StatusNew},
		{Status: entity.StatusEscalated},
		{Status: "Rejected"},
	})

	require.Len(t, counts, len(entity.DisputeStatuses))
	assert.Equal(t, 2, counts[entity.StatusNew])
	assert.Equal(t, 0, counts[entity.StatusOpen])
	assert.Equal(t, 0, counts[entity.StatusInProgress])
	assert.Equal(t, 0, counts[entity.StatusResolved])
	assert.Equal(t, 1, counts[entity.StatusEscalated])
}

func TestStatusChangeMovesCounts(t *testing.T) {
	agg := NewStatisticsAggregator(time.UTC, fixedClock)
	d := &entity.Dispute{ID: "d1", Status: entity.StatusNew, CreatedAt: at(fixedClock().Add(-time.Hour))}
	disputes := []*entity.Dispute{d, {ID: "d2", Status: entity.StatusOpen}}

	before := agg.StatusCounts(disputes)
	resolvedAt := fixedClock()
	d.Apply(&entity.StatusChange{DisputeID: "d1", Status: entity.StatusResolved, UpdatedAt: resolvedAt, ResolvedAt: &resolvedAt})
	after := agg.StatusCounts(disputes)

	assert.Equal(t, before[entity.StatusNew]-1, after[entity.StatusNew])
	assert.Equal(t, before[entity.StatusResolved]+1, after[entity.StatusResolved])
	assert.Equal(t, time.Hour, agg.AverageResolutionTime(disputes))
}

func TestMonthlyTrend(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	agg := NewStatisticsAggregator(jakarta, fixedClock)

	disputes := []*entity.Dispute{
		{Status: entity.StatusNew, CreatedAt: at(time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC))},
		// 20:00 UTC on Jan 31 is Feb 1 in the pinned zone.
		{Status: entity.StatusOpen, CreatedAt: at(time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC))},
		{Status: entity.StatusResolved, CreatedAt: at(time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC))},
		{Status: "Archived", CreatedAt: at(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))},
		{Status: entity.StatusNew},
	}

	trend, undated := agg.MonthlyTrend(disputes)
	require.Len(t, trend, 2)
	assert.Equal(t, "Feb", trend[0].Month)
	assert.Equal(t, 1, trend[0].Counts[entity.StatusOpen])
	assert.Equal(t, "Mar", trend[1].Month)
	assert.Equal(t, 3, trend[1].Total)
	assert.Equal(t, 1, trend[1].Counts[entity.StatusNew])
	assert.Equal(t, 1, trend[1].Counts[entity.StatusResolved])
	assert.Equal(t, 1, undated)

	sum := undated
	for _, m := range trend {
		sum += m.Total
	}
	assert.Equal(t, len(disputes), sum)

	stats := agg.Summarize(disputes)
	assert.Equal(t, len(disputes), stats.TotalDisputes)
	assert.Equal(t, 1, stats.Undated)
	assert.Equal(t, jakarta, stats.ComputedAt.Location())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 minutes"},
		{45 * time.Minute, "45 minutes"},
		{90 * time.Minute, "1 hr 30 min"},
		{23*time.Hour + 59*time.Minute, "23 hr 59 min"},
		{24 * time.Hour, "1 days 0 hrs"},
		{50 * time.Hour, "2 days 2 hrs"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}
