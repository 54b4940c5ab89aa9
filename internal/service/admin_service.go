package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

type adminRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateProfile(ctx context.Context, admin *models.Admin) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// UpdateProfileRequest holds a partial profile update; nil fields keep
// their stored value.
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"full_name"`
}

// ChangePasswordRequest carries the old and new password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// AdminService manages the administrator profile.
type AdminService struct {
	repo      adminRepository
	recorder  lifecycle.Recorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, deps Deps) *AdminService {
	deps = deps.withDefaults()
	return &AdminService{
		repo:      repo,
		recorder:  deps.Recorder,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

// Profile returns the authenticated admin's account.
func (s *AdminService) Profile(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	return admin, nil
}

// UpdateProfile merges a partial payload into the profile.
func (s *AdminService) UpdateProfile(ctx context.Context, actor lifecycle.Actor, req UpdateProfileRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	admin, err := s.repo.FindByID(ctx, actor.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if req.Username != nil && *req.Username != admin.Username {
		if existing, err := s.repo.FindByUsername(ctx, *req.Username); err == nil && existing.ID != admin.ID {
			return nil, appErrors.WithFields(
				appErrors.Clone(appErrors.ErrDuplicateKey, "username already in use"),
				map[string]string{"username": "already in use"},
			)
		}
		admin.Username = *req.Username
	}
	if req.Email != nil {
		admin.Email = *req.Email
	}
	if req.FullName != nil {
		admin.FullName = *req.FullName
	}
	if err := s.repo.UpdateProfile(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	s.record(ctx, actor, "admin.update_profile", "Updated profile")
	return admin, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *AdminService) ChangePassword(ctx context.Context, actor lifecycle.Actor, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}
	admin, err := s.repo.FindByID(ctx, actor.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "invalid change password payload"),
			map[string]string{"old_password": "does not match"},
		)
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, admin.ID, string(newHash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	s.record(ctx, actor, "admin.change_password", "Changed password")
	return nil
}

func (s *AdminService) record(ctx context.Context, actor lifecycle.Actor, action, details string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, lifecycle.Entry{
		AdminID:    actor.AdminID,
		Action:     action,
		EntityKind: "admin",
		EntityID:   actor.AdminID,
		IPAddress:  actor.IPAddress,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	})
}
