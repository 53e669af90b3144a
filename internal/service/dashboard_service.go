package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type dashboardRepository interface {
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
	TopBehaviors(ctx context.Context, limit int) ([]models.TopBehavior, error)
}

const dashboardStatsCacheKey = "dashboard:stats"

// topBehaviorsLimit caps the most-cited ranking shown on the dashboard.
const topBehaviorsLimit = 5

// DashboardService composes the admin dashboard payload with a short-lived
// cache in front; the counts drift constantly, so staleness within the TTL is
// acceptable.
type DashboardService struct {
	repo   dashboardRepository
	cache  catalogCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs the service. cache may be nil.
func NewDashboardService(repo dashboardRepository, cache catalogCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Stats returns the per-status overview and the top-5 most-cited approved
// behavior types.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count behavior logs")
	}
	top, err := s.repo.TopBehaviors(ctx, topBehaviorsLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank behavior types")
	}

	stats := &models.DashboardStats{TopBehaviors: top}
	if stats.TopBehaviors == nil {
		stats.TopBehaviors = []models.TopBehavior{}
	}
	for _, row := range counts {
		stats.Overview.Total += row.Count
		switch row.Status {
		case models.StatusPending:
			stats.Overview.Pending = row.Count
		case models.StatusApproved:
			stats.Overview.Approved = row.Count
		case models.StatusRejected:
			stats.Overview.Rejected = row.Count
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
