package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
)

const departmentColumns = `id, name, description, is_default, status, archived_at, created_at, updated_at`

const archivedDepartmentColumns = `id, name, description, archived_at, archived_reason`

// DepartmentRepository manages the departments table and its archive twin.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns live departments matching the provided filters.
func (r *DepartmentRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Department, int, error) {
	base := "FROM departments"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", departmentColumns, base, size, offset)

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	return departments, total, nil
}

// FindByID fetches a live department by id.
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM departments WHERE id = $1", departmentColumns)
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ExistsByKey checks whether a department name is taken, optionally excluding
// one row.
func (r *DepartmentRepository) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM departments WHERE name = $1"
	args := []interface{}{key}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check department name: %w", err)
	}
	return true, nil
}

// Insert stores a new department and assigns its id.
func (r *DepartmentRepository) Insert(ctx context.Context, department *models.Department) (*models.Department, error) {
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now
	const query = `INSERT INTO departments (name, description, is_default, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		department.Name, department.Description, department.IsDefault, department.Status, department.CreatedAt, department.UpdatedAt,
	).Scan(&department.ID); err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}
	return department, nil
}

// Update rewrites an existing department row.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) (*models.Department, error) {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = $2, description = $3, status = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, department.ID, department.Name, department.Description, department.Status, department.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update department: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check department update rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return department, nil
}

// Archive flips the live row to INACTIVE and copies it into
// archived_departments in a single transaction.
func (r *DepartmentRepository) Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedDepartment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive department: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	flip := fmt.Sprintf(`UPDATE departments SET status = $2, archived_at = $3, updated_at = $3 WHERE id = $1 AND archived_at IS NULL RETURNING %s`, departmentColumns)
	var department models.Department
	if err := tx.GetContext(ctx, &department, flip, id, lifecycle.StatusInactive, at); err != nil {
		return nil, err
	}

	const insert = `INSERT INTO archived_departments (name, description, archived_at, archived_reason)
        VALUES ($1, $2, $3, $4) RETURNING id`
	snapshot := models.ArchivedDepartment{
		Name:           department.Name,
		Description:    department.Description,
		ArchivedAt:     at,
		ArchivedReason: reason,
	}
	if err := tx.QueryRowxContext(ctx, insert,
		snapshot.Name, snapshot.Description, snapshot.ArchivedAt, snapshot.ArchivedReason,
	).Scan(&snapshot.ID); err != nil {
		return nil, fmt.Errorf("insert archived department: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive department: %w", err)
	}
	return &snapshot, nil
}

// ListArchived returns archive snapshots, newest first.
func (r *DepartmentRepository) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedDepartment, int, error) {
	base := "FROM archived_departments"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY archived_at DESC LIMIT %d OFFSET %d", archivedDepartmentColumns, base, size, offset)

	var snapshots []models.ArchivedDepartment
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list archived departments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count archived departments: %w", err)
	}
	return snapshots, total, nil
}

// FindSnapshotByID fetches one archive snapshot.
func (r *DepartmentRepository) FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedDepartment, error) {
	query := fmt.Sprintf("SELECT %s FROM archived_departments WHERE id = $1", archivedDepartmentColumns)
	var snapshot models.ArchivedDepartment
	if err := r.db.GetContext(ctx, &snapshot, query, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Restore reactivates the live row matched by name and removes the
// snapshot, atomically.
func (r *DepartmentRepository) Restore(ctx context.Context, snapshot *models.ArchivedDepartment, at time.Time) (*models.Department, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin restore department: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	revive := fmt.Sprintf(`UPDATE departments SET status = $2, archived_at = NULL, updated_at = $3 WHERE name = $1 RETURNING %s`, departmentColumns)
	var department models.Department
	if err := tx.GetContext(ctx, &department, revive, snapshot.Name, lifecycle.StatusActive, at); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM archived_departments WHERE id = $1", snapshot.ID); err != nil {
		return nil, fmt.Errorf("delete archived department: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restore department: %w", err)
	}
	return &department, nil
}

// ForceDelete permanently removes the snapshot and any live row sharing
// its name.
func (r *DepartmentRepository) ForceDelete(ctx context.Context, snapshot *models.ArchivedDepartment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin force delete department: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM departments WHERE name = $1", snapshot.Name); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM archived_departments WHERE id = $1", snapshot.ID)
	if err != nil {
		return fmt.Errorf("delete archived department: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archived department delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit force delete department: %w", err)
	}
	return nil
}

// CountByStatus counts live departments in one status.
func (r *DepartmentRepository) CountByStatus(ctx context.Context, status lifecycle.Status) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM departments WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return total, nil
}

// CountArchived counts archive snapshots.
func (r *DepartmentRepository) CountArchived(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM archived_departments"); err != nil {
		return 0, fmt.Errorf("count archived departments: %w", err)
	}
	return total, nil
}
