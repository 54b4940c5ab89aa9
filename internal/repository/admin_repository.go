package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edukasys/sfa-records-api/internal/models"
)

const adminColumns = `id, username, email, full_name, password_hash, last_login_at, created_at, updated_at`

// AdminRepository persists administrator accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername fetches an admin by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE username = $1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByID fetches an admin by id.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE id = $1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// UpdateProfile rewrites the mutable profile fields.
func (r *AdminRepository) UpdateProfile(ctx context.Context, admin *models.Admin) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admins SET username = $2, email = $3, full_name = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, admin.ID, admin.Username, admin.Email, admin.FullName, admin.UpdatedAt); err != nil {
		return fmt.Errorf("update admin profile: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the last successful login.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE admins SET last_login_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return nil
}
