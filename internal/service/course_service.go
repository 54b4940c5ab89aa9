package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error)
	ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedCourse, int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error)
	Insert(ctx context.Context, course *models.Course) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) (*models.Course, error)
	Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedCourse, error)
	FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedCourse, error)
	Restore(ctx context.Context, snapshot *models.ArchivedCourse, at time.Time) (*models.Course, error)
	ForceDelete(ctx context.Context, snapshot *models.ArchivedCourse) error
}

// CreateCourseRequest holds the payload for creating courses. Unlike
// students and faculty, a missing status defaults to ACTIVE. The
// divergence is inherited behaviour, kept per kind on purpose.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// UpdateCourseRequest holds a partial update; nil fields keep their
// stored value.
type UpdateCourseRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// CourseService handles course use-cases on top of the lifecycle manager.
type CourseService struct {
	repo      courseRepository
	manager   *lifecycle.Manager[*models.Course, *models.ArchivedCourse]
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, deps Deps) *CourseService {
	deps = deps.withDefaults()
	s := &CourseService{
		repo:      repo,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
	s.manager = lifecycle.NewManager[*models.Course, *models.ArchivedCourse]("course", "Course", "name", repo, deps.Recorder, deps.Logger)
	if deps.Observer != nil {
		s.manager.WithObserver(deps.Observer)
	}
	return s
}

// List returns live courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.ListFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, pageOf(filter, total), nil
}

// Get returns one live course.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course, defaulting the status to ACTIVE.
func (s *CourseService) Create(ctx context.Context, actor lifecycle.Actor, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	status := lifecycle.Status(req.Status)
	if req.Status == "" {
		status = lifecycle.StatusActive
	}
	course := &models.Course{
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
	}
	return s.manager.Create(ctx, actor, course)
}

// Update merges a partial payload into an existing course.
func (s *CourseService) Update(ctx context.Context, actor lifecycle.Actor, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Status != nil {
		course.Status = lifecycle.Status(*req.Status)
	}
	return s.manager.Update(ctx, actor, course)
}

// Archive moves a course into the archive. Default courses are refused.
func (s *CourseService) Archive(ctx context.Context, actor lifecycle.Actor, id int64) (*models.ArchivedCourse, error) {
	return s.manager.Archive(ctx, actor, id)
}

// ListArchived returns archive snapshots.
func (s *CourseService) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedCourse, *models.Pagination, error) {
	snapshots, total, err := s.repo.ListArchived(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archived courses")
	}
	return snapshots, pageOf(filter, total), nil
}

// Restore brings an archived course back to the live table.
func (s *CourseService) Restore(ctx context.Context, actor lifecycle.Actor, archiveID int64) (*models.Course, error) {
	return s.manager.Restore(ctx, actor, archiveID)
}

// ForceDelete permanently removes an archived course.
func (s *CourseService) ForceDelete(ctx context.Context, actor lifecycle.Actor, archiveID int64) error {
	return s.manager.ForceDelete(ctx, actor, archiveID)
}
