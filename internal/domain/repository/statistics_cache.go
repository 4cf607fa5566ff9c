package repository

import (
	"context"

	"disputedesk/internal/domain/entity"
)

// StatisticsCache holds the last computed statistics for display. It is never
// the source of truth; a miss returns (nil, nil).
type StatisticsCache interface {
	Get(ctx context.Context) (*entity.DisputeStatistics, error)
	Set(ctx context.Context, stats *entity.DisputeStatistics) error
	Invalidate(ctx context.Context) error
}
