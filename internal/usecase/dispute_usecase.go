package usecase

import (
	"context"
	"time"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/internal/domain/service"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

type DisputeUseCase struct {
	disputes   repository.DisputeRepository
	cache      repository.StatisticsCache
	aggregator *service.StatisticsAggregator
	clock      func() time.Time
}

func NewDisputeUseCase(
	disputes repository.DisputeRepository,
	cache repository.StatisticsCache,
	aggregator *service.StatisticsAggregator,
) *DisputeUseCase {
	return &DisputeUseCase{
		disputes:   disputes,
		cache:      cache,
		aggregator: aggregator,
		clock:      time.Now,
	}
}

func (uc *DisputeUseCase) GetDispute(ctx context.Context, id string) (*entity.Dispute, error) {
	return uc.disputes.GetByID(ctx, id)
}

func (uc *DisputeUseCase) ListDisputes(ctx context.Context, statuses ...entity.DisputeStatus) ([]*entity.Dispute, error) {
	return uc.disputes.List(ctx, statuses...)
}

// UpdateStatus accepts any recognized status regardless of the current one.
// Local copies are not touched; live subscribers see the change through the
// backend, others merge the returned StatusChange.
func (uc *DisputeUseCase) UpdateStatus(ctx context.Context, id, raw string) (*entity.StatusChange, error) {
	status, ok := entity.ParseDisputeStatus(raw)
	if !ok {
		return nil, errors.InvalidTransition(raw)
	}

	change, err := uc.disputes.UpdateStatus(ctx, id, status, uc.clock())
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate statistics cache: %v", err)
	}

	logger.Info("Dispute %s moved to %s", id, status)
	return change, nil
}

// GetStatistics serves the cached figures unless fresh is set. A cache
// failure falls through to a full read.
func (uc *DisputeUseCase) GetStatistics(ctx context.Context, fresh bool) (*entity.DisputeStatistics, error) {
	if !fresh {
		cached, err := uc.cache.Get(ctx)
		if err != nil {
			logger.Warn("Statistics cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	disputes, err := uc.disputes.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := uc.aggregator.Summarize(disputes)
	uc.storeStatistics(ctx, stats)
	return stats, nil
}

func (uc *DisputeUseCase) storeStatistics(ctx context.Context, stats *entity.DisputeStatistics) {
	if err := uc.cache.Set(ctx, stats); err != nil {
		logger.Warn("Statistics cache write failed: %v", err)
	}
}

// WatchDashboard pairs every live dispute snapshot with statistics computed
// from that same snapshot.
func (uc *DisputeUseCase) WatchDashboard(ctx context.Context) *repository.Subscription[*entity.DashboardSnapshot] {
	return repository.Subscribe(ctx, func(ctx context.Context, emit func(*entity.DashboardSnapshot) bool) error {
		sub := uc.disputes.Subscribe(ctx)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return nil
			case disputes, ok := <-sub.Updates():
				if !ok {
					return <-sub.Err()
				}
				stats := uc.aggregator.Summarize(disputes)
				uc.storeStatistics(ctx, stats)
				if !emit(&entity.DashboardSnapshot{Disputes: disputes, Statistics: stats}) {
					return nil
				}
			}
		}
	})
}
