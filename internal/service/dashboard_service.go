package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

const dashboardStatsKey = "dashboard:stats"

type recordCounter interface {
	CountByStatus(ctx context.Context, status lifecycle.Status) (int, error)
	CountArchived(ctx context.Context) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students    recordCounter
	Faculty     recordCounter
	Courses     recordCounter
	Departments recordCounter
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the admin landing-screen aggregate. Counts are
// served from cache when fresh; a broken cache degrades to straight
// database reads, never to an error.
type DashboardService struct {
	students    recordCounter
	faculty     recordCounter
	courses     recordCounter
	departments recordCounter
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:    params.Students,
		faculty:     params.Faculty,
		courses:     params.Courses,
		departments: params.Departments,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Stats returns the per-kind counts and indicates cache utilisation.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardStatsKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	stats := &models.DashboardStats{GeneratedAt: s.now().UTC()}
	counters := []struct {
		counter recordCounter
		dest    *models.KindCounts
	}{
		{s.students, &stats.Students},
		{s.faculty, &stats.Faculty},
		{s.courses, &stats.Courses},
		{s.departments, &stats.Departments},
	}
	for _, c := range counters {
		counts, err := s.countKind(ctx, c.counter)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
		}
		*c.dest = counts
	}

	if err := s.cache.Set(ctx, dashboardStatsKey, stats, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return stats, false, nil
}

// Invalidate drops the cached aggregate. Called after lifecycle writes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardStatsKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard stats", zap.Error(err))
	}
}

func (s *DashboardService) countKind(ctx context.Context, counter recordCounter) (models.KindCounts, error) {
	var counts models.KindCounts
	started := time.Now()
	defer func() {
		s.metrics.ObserveDBQuery("dashboard_counts", time.Since(started))
	}()
	active, err := counter.CountByStatus(ctx, lifecycle.StatusActive)
	if err != nil {
		return counts, err
	}
	inactive, err := counter.CountByStatus(ctx, lifecycle.StatusInactive)
	if err != nil {
		return counts, err
	}
	archived, err := counter.CountArchived(ctx)
	if err != nil {
		return counts, err
	}
	counts.Active = active
	counts.Inactive = inactive
	counts.Archived = archived
	return counts, nil
}
