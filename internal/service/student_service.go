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

type studentRepository interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error)
	ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedStudent, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error)
	Insert(ctx context.Context, student *models.Student) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) (*models.Student, error)
	Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedStudent, error)
	FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedStudent, error)
	Restore(ctx context.Context, snapshot *models.ArchivedStudent, at time.Time) (*models.Student, error)
	ForceDelete(ctx context.Context, snapshot *models.ArchivedStudent) error
}

type courseResolver interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// CreateStudentRequest holds the payload for creating students. Status is
// required here; Course and Department payloads default it instead.
type CreateStudentRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Gender        string `json:"gender" validate:"required"`
	BirthDate     string `json:"birth_date"`
	Age           *int   `json:"age"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	CourseID      *int64 `json:"course_id"`
	Status        string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// UpdateStudentRequest holds a partial update; nil fields keep their
// stored value.
type UpdateStudentRequest struct {
	StudentNumber *string `json:"student_number"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Gender        *string `json:"gender"`
	BirthDate     *string `json:"birth_date"`
	Age           *int    `json:"age"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	CourseID      *int64  `json:"course_id"`
	Status        *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// StudentService handles student use-cases on top of the lifecycle
// manager.
type StudentService struct {
	repo      studentRepository
	courses   courseResolver
	manager   *lifecycle.Manager[*models.Student, *models.ArchivedStudent]
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, courses courseResolver, deps Deps) *StudentService {
	deps = deps.withDefaults()
	s := &StudentService{
		repo:      repo,
		courses:   courses,
		validator: deps.Validator,
		logger:    deps.Logger,
		now:       time.Now,
	}
	s.manager = lifecycle.NewManager[*models.Student, *models.ArchivedStudent]("student", "Student", "student_number", repo, deps.Recorder, deps.Logger)
	if deps.Observer != nil {
		s.manager.WithObserver(deps.Observer)
	}
	return s
}

// List returns live students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.ListFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, pageOf(filter, total), nil
}

// Get returns one live student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, actor lifecycle.Actor, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student := &models.Student{
		StudentNumber: req.StudentNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Gender:        req.Gender,
		Age:           req.Age,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Status:        lifecycle.Status(req.Status),
	}
	s.applyBirthDate(student, req.BirthDate, req.Age)
	if req.CourseID != nil {
		if err := s.resolveCourse(ctx, student, *req.CourseID); err != nil {
			return nil, err
		}
	}
	return s.manager.Create(ctx, actor, student)
}

// Update merges a partial payload into an existing student. Flipping the
// status here never creates an archive snapshot; only Archive does.
func (s *StudentService) Update(ctx context.Context, actor lifecycle.Actor, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if req.StudentNumber != nil {
		student.StudentNumber = *req.StudentNumber
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Address != nil {
		student.Address = *req.Address
	}
	if req.Status != nil {
		student.Status = lifecycle.Status(*req.Status)
	}
	if req.BirthDate != nil {
		s.applyBirthDate(student, *req.BirthDate, req.Age)
	} else if req.Age != nil {
		student.Age = req.Age
	}
	if req.CourseID != nil {
		if err := s.resolveCourse(ctx, student, *req.CourseID); err != nil {
			return nil, err
		}
	}
	return s.manager.Update(ctx, actor, student)
}

// Archive moves a student into the archive.
func (s *StudentService) Archive(ctx context.Context, actor lifecycle.Actor, id int64) (*models.ArchivedStudent, error) {
	return s.manager.Archive(ctx, actor, id)
}

// ListArchived returns archive snapshots.
func (s *StudentService) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedStudent, *models.Pagination, error) {
	snapshots, total, err := s.repo.ListArchived(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archived students")
	}
	return snapshots, pageOf(filter, total), nil
}

// Restore brings an archived student back to the live table.
func (s *StudentService) Restore(ctx context.Context, actor lifecycle.Actor, archiveID int64) (*models.Student, error) {
	return s.manager.Restore(ctx, actor, archiveID)
}

// ForceDelete permanently removes an archived student.
func (s *StudentService) ForceDelete(ctx context.Context, actor lifecycle.Actor, archiveID int64) error {
	return s.manager.ForceDelete(ctx, actor, archiveID)
}

// applyBirthDate derives the age from the date of birth. When the date
// fails to parse the record keeps the caller-supplied age untouched; the
// skip is surfaced to observability only.
func (s *StudentService) applyBirthDate(student *models.Student, raw string, fallbackAge *int) {
	if raw == "" {
		return
	}
	dob, ok := parseBirthDate(raw)
	if !ok {
		student.Age = fallbackAge
		s.logger.Warn("age_derivation_skipped",
			zap.String("entity_kind", "student"),
			zap.String("birth_date", raw),
		)
		return
	}
	age := deriveAge(dob, s.now().UTC())
	student.BirthDate = &dob
	student.Age = &age
}

func (s *StudentService) resolveCourse(ctx context.Context, student *models.Student, courseID int64) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.WithFields(
				appErrors.Clone(appErrors.ErrValidation, "invalid student payload"),
				map[string]string{"course_id": "course not found"},
			)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
	}
	student.CourseID = &course.ID
	name := course.Name
	student.CourseName = &name
	return nil
}

func pageOf(filter models.ListFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
