package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/models"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardRequestRepository interface {
	CountByStatus(ctx context.Context) (total, pending, approved, rejected int, err error)
	ListRecent(ctx context.Context, limit int) ([]models.DiscountRequest, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DashboardConfig tunes the summary computation.
type DashboardConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService aggregates request counts and recent activity. A store
// failure degrades to a zeroed summary so the landing page always renders.
type DashboardService struct {
	requests dashboardRequestRepository
	cache    summaryCache
	metrics  *MetricsService
	logger   *zap.Logger
	config   DashboardConfig
}

// NewDashboardService constructs the service.
func NewDashboardService(requests dashboardRequestRepository, cache summaryCache, metrics *MetricsService, logger *zap.Logger, cfg DashboardConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	return &DashboardService{requests: requests, cache: cache, metrics: metrics, logger: logger, config: cfg}
}

// Summary returns the dashboard rollup, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) *models.DashboardSummary {
	if s.cache != nil {
		var cached models.DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil)
		if err == nil {
			return &cached
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary := s.compute(ctx)

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.config.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary
}

// Invalidate drops the cached summary after a state change.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compute(ctx context.Context) *models.DashboardSummary {
	summary := &models.DashboardSummary{Recent: []models.DiscountRequest{}}

	total, pending, approved, rejected, err := s.requests.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count requests, serving zeroed dashboard", zap.Error(err))
		return summary
	}
	summary.Total = total
	summary.Pending = pending
	summary.Approved = approved
	summary.Rejected = rejected

	recent, err := s.requests.ListRecent(ctx, s.config.RecentLimit)
	if err != nil {
		s.logger.Error("failed to list recent requests, serving zeroed dashboard", zap.Error(err))
		return &models.DashboardSummary{Recent: []models.DiscountRequest{}}
	}
	if recent != nil {
		summary.Recent = recent
	}
	return summary
}
