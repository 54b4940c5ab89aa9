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

type facultyRepository interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Faculty, int, error)
	ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedFaculty, int, error)
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error)
	Insert(ctx context.Context, member *models.Faculty) (*models.Faculty, error)
	Update(ctx context.Context, member *models.Faculty) (*models.Faculty, error)
	Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedFaculty, error)
	FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedFaculty, error)
	Restore(ctx context.Context, snapshot *models.ArchivedFaculty, at time.Time) (*models.Faculty, error)
	ForceDelete(ctx context.Context, snapshot *models.ArchivedFaculty) error
}

type departmentResolver interface {
	FindByID(ctx context.Context, id int64) (*models.Department, error)
}

// CreateFacultyRequest holds the payload for creating faculty members.
// Status is required, same asymmetry as students.
type CreateFacultyRequest struct {
	FacultyNumber string `json:"faculty_number" validate:"required"`
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Gender        string `json:"gender" validate:"required"`
	BirthDate     string `json:"birth_date"`
	Age           *int   `json:"age"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Position      string `json:"position"`
	DepartmentID  *int64 `json:"department_id"`
	Status        string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// UpdateFacultyRequest holds a partial update; nil fields keep their
// stored value.
type UpdateFacultyRequest struct {
	FacultyNumber *string `json:"faculty_number"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Gender        *string `json:"gender"`
	BirthDate     *string `json:"birth_date"`
	Age           *int    `json:"age"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	Position      *string `json:"position"`
	DepartmentID  *int64  `json:"department_id"`
	Status        *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// FacultyService handles faculty use-cases on top of the lifecycle
// manager.
type FacultyService struct {
	repo        facultyRepository
	departments departmentResolver
	manager     *lifecycle.Manager[*models.Faculty, *models.ArchivedFaculty]
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewFacultyService constructs the faculty service.
func NewFacultyService(repo facultyRepository, departments departmentResolver, deps Deps) *FacultyService {
	deps = deps.withDefaults()
	s := &FacultyService{
		repo:        repo,
		departments: departments,
		validator:   deps.Validator,
		logger:      deps.Logger,
		now:         time.Now,
	}
	s.manager = lifecycle.NewManager[*models.Faculty, *models.ArchivedFaculty]("faculty", "Faculty", "faculty_number", repo, deps.Recorder, deps.Logger)
	if deps.Observer != nil {
		s.manager.WithObserver(deps.Observer)
	}
	return s
}

// List returns live faculty and pagination metadata.
func (s *FacultyService) List(ctx context.Context, filter models.ListFilter) ([]models.Faculty, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return members, pageOf(filter, total), nil
}

// Get returns one live faculty member.
func (s *FacultyService) Get(ctx context.Context, id int64) (*models.Faculty, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return member, nil
}

// Create registers a new faculty member.
func (s *FacultyService) Create(ctx context.Context, actor lifecycle.Actor, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid faculty payload")
	}
	member := &models.Faculty{
		FacultyNumber: req.FacultyNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Gender:        req.Gender,
		Age:           req.Age,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Position:      req.Position,
		Status:        lifecycle.Status(req.Status),
	}
	s.applyBirthDate(member, req.BirthDate, req.Age)
	if req.DepartmentID != nil {
		if err := s.resolveDepartment(ctx, member, *req.DepartmentID); err != nil {
			return nil, err
		}
	}
	return s.manager.Create(ctx, actor, member)
}

// Update merges a partial payload into an existing faculty member.
func (s *FacultyService) Update(ctx context.Context, actor lifecycle.Actor, id int64, req UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid faculty payload")
	}
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	if req.FacultyNumber != nil {
		member.FacultyNumber = *req.FacultyNumber
	}
	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		member.LastName = *req.LastName
	}
	if req.Gender != nil {
		member.Gender = *req.Gender
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Address != nil {
		member.Address = *req.Address
	}
	if req.Position != nil {
		member.Position = *req.Position
	}
	if req.Status != nil {
		member.Status = lifecycle.Status(*req.Status)
	}
	if req.BirthDate != nil {
		s.applyBirthDate(member, *req.BirthDate, req.Age)
	} else if req.Age != nil {
		member.Age = req.Age
	}
	if req.DepartmentID != nil {
		if err := s.resolveDepartment(ctx, member, *req.DepartmentID); err != nil {
			return nil, err
		}
	}
	return s.manager.Update(ctx, actor, member)
}

// Archive moves a faculty member into the archive.
func (s *FacultyService) Archive(ctx context.Context, actor lifecycle.Actor, id int64) (*models.ArchivedFaculty, error) {
	return s.manager.Archive(ctx, actor, id)
}

// ListArchived returns archive snapshots.
func (s *FacultyService) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedFaculty, *models.Pagination, error) {
	snapshots, total, err := s.repo.ListArchived(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archived faculty")
	}
	return snapshots, pageOf(filter, total), nil
}

// Restore brings an archived faculty member back to the live table.
func (s *FacultyService) Restore(ctx context.Context, actor lifecycle.Actor, archiveID int64) (*models.Faculty, error) {
	return s.manager.Restore(ctx, actor, archiveID)
}

// ForceDelete permanently removes an archived faculty member.
func (s *FacultyService) ForceDelete(ctx context.Context, actor lifecycle.Actor, archiveID int64) error {
	return s.manager.ForceDelete(ctx, actor, archiveID)
}

func (s *FacultyService) applyBirthDate(member *models.Faculty, raw string, fallbackAge *int) {
	if raw == "" {
		return
	}
	dob, ok := parseBirthDate(raw)
	if !ok {
		member.Age = fallbackAge
		s.logger.Warn("age_derivation_skipped",
			zap.String("entity_kind", "faculty"),
			zap.String("birth_date", raw),
		)
		return
	}
	age := deriveAge(dob, s.now().UTC())
	member.BirthDate = &dob
	member.Age = &age
}

func (s *FacultyService) resolveDepartment(ctx context.Context, member *models.Faculty, departmentID int64) error {
	department, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.WithFields(
				appErrors.Clone(appErrors.ErrValidation, "invalid faculty payload"),
				map[string]string{"department_id": "department not found"},
			)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department")
	}
	member.DepartmentID = &department.ID
	name := department.Name
	member.DepartmentName = &name
	return nil
}
