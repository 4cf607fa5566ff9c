package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/service"
	"disputedesk/pkg/errors"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newDisputeUseCase(repo *fakeDisputeRepo, cache *fakeStatsCache) *DisputeUseCase {
	uc := NewDisputeUseCase(repo, cache, service.NewStatisticsAggregator(time.UTC, func() time.Time { return testNow }))
	uc.clock = func() time.Time { return testNow }
	return uc
}

func ptr(t time.Time) *time.Time { return &t }

func TestUpdateStatusNewToResolved(t *testing.T) {
	created := testNow.Add(-90 * time.Minute)
	repo := newFakeDisputeRepo(
		&entity.Dispute{ID: "d1", Status: entity.StatusNew, CreatedAt: ptr(created)},
		&entity.Dispute{ID: "d2", Status: entity.StatusOpen, CreatedAt: ptr(created)},
	)
	cache := &fakeStatsCache{}
	uc := newDisputeUseCase(repo, cache)
	ctx := context.Background()

	before, err := uc.GetStatistics(ctx, true)
	require.NoError(t, err)

	change, err := uc.UpdateStatus(ctx, "d1", "resolved")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResolved, change.Status)
	require.NotNil(t, change.ResolvedAt)
	assert.True(t, change.ResolvedAt.Equal(testNow))
	assert.Equal(t, 1, cache.invalidated)

	d, err := uc.GetDispute(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResolved, d.Status)
	require.NotNil(t, d.ResolvedAt)

	after, err := uc.GetStatistics(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, before.StatusCounts[entity.StatusNew]-1, after.StatusCounts[entity.StatusNew])
	assert.Equal(t, before.StatusCounts[entity.StatusResolved]+1, after.StatusCounts[entity.StatusResolved])
	assert.Equal(t, 90.0, after.AverageResolutionMinutes)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeDisputeRepo(&entity.Dispute{ID: "d1", Status: entity.StatusOpen})
	uc := newDisputeUseCase(repo, &fakeStatsCache{})

	_, err := uc.UpdateStatus(context.Background(), "d1", "Closed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeInvalidTransition))
	assert.Equal(t, 0, repo.statusUpdates)
}

func TestUpdateStatusAnyRecognizedOrder(t *testing.T) {
	repo := newFakeDisputeRepo(&entity.Dispute{ID: "d1", Status: entity.StatusResolved})
	uc := newDisputeUseCase(repo, &fakeStatsCache{})

	_, err := uc.UpdateStatus(context.Background(), "d1", "New")
	require.NoError(t, err)

	_, err = uc.UpdateStatus(context.Background(), "missing", "Open")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestGetStatisticsUsesCacheUnlessFresh(t *testing.T) {
	repo := newFakeDisputeRepo(&entity.Dispute{ID: "d1", Status: entity.StatusNew})
	cache := &fakeStatsCache{stats: &entity.DisputeStatistics{TotalDisputes: 99}}
	uc := newDisputeUseCase(repo, cache)

	stats, err := uc.GetStatistics(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 99, stats.TotalDisputes)

	stats, err = uc.GetStatistics(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDisputes)
	assert.Equal(t, 1, cache.stats.TotalDisputes, "fresh result refreshes the cache")
}

func TestWatchDashboardRecomputesPerSnapshot(t *testing.T) {
	repo := newFakeDisputeRepo(&entity.Dispute{ID: "d1", Status: entity.StatusNew})
	uc := newDisputeUseCase(repo, &fakeStatsCache{})

	sub := uc.WatchDashboard(context.Background())
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.feeds) == 1
	}, time.Second, 5*time.Millisecond)

	repo.push()
	snap := <-sub.Updates()
	assert.Len(t, snap.Disputes, 1)
	assert.Equal(t, 1, snap.Statistics.StatusCounts[entity.StatusNew])

	_, err := uc.UpdateStatus(context.Background(), "d1", "Escalated")
	require.NoError(t, err)
	repo.push()
	snap = <-sub.Updates()
	assert.Equal(t, 0, snap.Statistics.StatusCounts[entity.StatusNew])
	assert.Equal(t, 1, snap.Statistics.StatusCounts[entity.StatusEscalated])

	sub.Close()
	repo.push()
	_, open := <-sub.Updates()
	assert.False(t, open, "closed dashboard subscription delivers nothing further")
}
