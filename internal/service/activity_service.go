package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
	"github.com/edukasys/sfa-records-api/pkg/jobs"
)

type activityRepository interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

// ActivityService is the append-only audit sink behind every lifecycle
// transition. Writes go through an in-memory queue so a slow or failing
// insert can never block or roll back the business mutation that
// triggered it; a dropped entry is logged and lost, which is the accepted
// trade-off.
type ActivityService struct {
	repo    activityRepository
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewActivityService constructs the service and its writer queue. Call
// Start before recording and Stop on shutdown.
func NewActivityService(repo activityRepository, cfg jobs.QueueConfig, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ActivityService{repo: repo, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("activity", s.handle, cfg)
	return s
}

// WithMetrics attaches drop accounting. Optional.
func (s *ActivityService) WithMetrics(metrics *MetricsService) *ActivityService {
	s.metrics = metrics
	return s
}

// Start launches the writer workers.
func (s *ActivityService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the writer workers.
func (s *ActivityService) Stop() {
	s.queue.Stop()
}

// Record implements lifecycle.Recorder. It never blocks and never reports
// failure to the caller.
func (s *ActivityService) Record(ctx context.Context, entry lifecycle.Entry) {
	job := jobs.Job{
		Type: entry.Action,
		Payload: &models.ActivityLog{
			AdminID:    entry.AdminID,
			Action:     entry.Action,
			EntityKind: entry.EntityKind,
			EntityID:   entry.EntityID,
			IPAddress:  entry.IPAddress,
			Details:    entry.Details,
			CreatedAt:  entry.OccurredAt,
		},
	}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.metrics.RecordActivityDrop()
		s.logger.Warn("activity entry dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *ActivityService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.ActivityLog)
	if !ok {
		s.logger.Error("activity job carries unexpected payload", zap.String("type", job.Type))
		return nil
	}
	return s.repo.Insert(ctx, entry)
}

// List returns activity records for the admin activity screen.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return entries, pagination, nil
}
