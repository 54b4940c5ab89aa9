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

const facultyColumns = `id, faculty_number, first_name, last_name, gender, birth_date, age, email, phone, address, position, department_id, department_name, status, archived_at, created_at, updated_at`

const archivedFacultyColumns = `id, faculty_number, first_name, last_name, gender, birth_date, age, email, phone, address, position, department_id, department_name, archived_at, archived_reason`

// FacultyRepository manages the faculty table and its archive twin.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns live faculty matching the provided filters.
func (r *FacultyRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Faculty, int, error) {
	base := "FROM faculty"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(faculty_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"faculty_number": "faculty_number",
		"last_name":      "last_name",
		"created_at":     "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", facultyColumns, base, column, order, size, offset)

	var members []models.Faculty
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return members, total, nil
}

// FindByID fetches a live faculty member by id.
func (r *FacultyRepository) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty WHERE id = $1", facultyColumns)
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByKey checks whether a faculty number is taken, optionally
// excluding one row.
func (r *FacultyRepository) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM faculty WHERE faculty_number = $1"
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
		return false, fmt.Errorf("check faculty number: %w", err)
	}
	return true, nil
}

// Insert stores a new faculty member and assigns its id.
func (r *FacultyRepository) Insert(ctx context.Context, member *models.Faculty) (*models.Faculty, error) {
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	const query = `INSERT INTO faculty (faculty_number, first_name, last_name, gender, birth_date, age, email, phone, address, position, department_id, department_name, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		member.FacultyNumber, member.FirstName, member.LastName, member.Gender,
		member.BirthDate, member.Age, member.Email, member.Phone, member.Address,
		member.Position, member.DepartmentID, member.DepartmentName, member.Status,
		member.CreatedAt, member.UpdatedAt,
	).Scan(&member.ID); err != nil {
		return nil, fmt.Errorf("create faculty: %w", err)
	}
	return member, nil
}

// Update rewrites an existing faculty row.
func (r *FacultyRepository) Update(ctx context.Context, member *models.Faculty) (*models.Faculty, error) {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET faculty_number = $2, first_name = $3, last_name = $4, gender = $5, birth_date = $6, age = $7, email = $8, phone = $9, address = $10, position = $11, department_id = $12, department_name = $13, status = $14, updated_at = $15 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		member.ID, member.FacultyNumber, member.FirstName, member.LastName, member.Gender,
		member.BirthDate, member.Age, member.Email, member.Phone, member.Address,
		member.Position, member.DepartmentID, member.DepartmentName, member.Status, member.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update faculty: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check faculty update rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return member, nil
}

// Archive flips the live row to INACTIVE and copies it into
// archived_faculty in a single transaction.
func (r *FacultyRepository) Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedFaculty, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive faculty: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	flip := fmt.Sprintf(`UPDATE faculty SET status = $2, archived_at = $3, updated_at = $3 WHERE id = $1 AND archived_at IS NULL RETURNING %s`, facultyColumns)
	var member models.Faculty
	if err := tx.GetContext(ctx, &member, flip, id, lifecycle.StatusInactive, at); err != nil {
		return nil, err
	}

	const insert = `INSERT INTO archived_faculty (faculty_number, first_name, last_name, gender, birth_date, age, email, phone, address, position, department_id, department_name, archived_at, archived_reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	snapshot := models.ArchivedFaculty{
		FacultyNumber:  member.FacultyNumber,
		FirstName:      member.FirstName,
		LastName:       member.LastName,
		Gender:         member.Gender,
		BirthDate:      member.BirthDate,
		Age:            member.Age,
		Email:          member.Email,
		Phone:          member.Phone,
		Address:        member.Address,
		Position:       member.Position,
		DepartmentID:   member.DepartmentID,
		DepartmentName: member.DepartmentName,
		ArchivedAt:     at,
		ArchivedReason: reason,
	}
	if err := tx.QueryRowxContext(ctx, insert,
		snapshot.FacultyNumber, snapshot.FirstName, snapshot.LastName, snapshot.Gender,
		snapshot.BirthDate, snapshot.Age, snapshot.Email, snapshot.Phone, snapshot.Address,
		snapshot.Position, snapshot.DepartmentID, snapshot.DepartmentName,
		snapshot.ArchivedAt, snapshot.ArchivedReason,
	).Scan(&snapshot.ID); err != nil {
		return nil, fmt.Errorf("insert archived faculty: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive faculty: %w", err)
	}
	return &snapshot, nil
}

// ListArchived returns archive snapshots, newest first.
func (r *FacultyRepository) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedFaculty, int, error) {
	base := "FROM archived_faculty"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(faculty_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY archived_at DESC LIMIT %d OFFSET %d", archivedFacultyColumns, base, size, offset)

	var snapshots []models.ArchivedFaculty
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list archived faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count archived faculty: %w", err)
	}
	return snapshots, total, nil
}

// FindSnapshotByID fetches one archive snapshot.
func (r *FacultyRepository) FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedFaculty, error) {
	query := fmt.Sprintf("SELECT %s FROM archived_faculty WHERE id = $1", archivedFacultyColumns)
	var snapshot models.ArchivedFaculty
	if err := r.db.GetContext(ctx, &snapshot, query, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Restore reactivates the live row matched by faculty number and removes
// the snapshot, atomically.
func (r *FacultyRepository) Restore(ctx context.Context, snapshot *models.ArchivedFaculty, at time.Time) (*models.Faculty, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin restore faculty: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	revive := fmt.Sprintf(`UPDATE faculty SET status = $2, archived_at = NULL, updated_at = $3 WHERE faculty_number = $1 RETURNING %s`, facultyColumns)
	var member models.Faculty
	if err := tx.GetContext(ctx, &member, revive, snapshot.FacultyNumber, lifecycle.StatusActive, at); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM archived_faculty WHERE id = $1", snapshot.ID); err != nil {
		return nil, fmt.Errorf("delete archived faculty: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restore faculty: %w", err)
	}
	return &member, nil
}

// ForceDelete permanently removes the snapshot and any live row sharing
// its faculty number.
func (r *FacultyRepository) ForceDelete(ctx context.Context, snapshot *models.ArchivedFaculty) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin force delete faculty: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM faculty WHERE faculty_number = $1", snapshot.FacultyNumber); err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM archived_faculty WHERE id = $1", snapshot.ID)
	if err != nil {
		return fmt.Errorf("delete archived faculty: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archived faculty delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit force delete faculty: %w", err)
	}
	return nil
}

// CountByStatus counts live faculty in one status.
func (r *FacultyRepository) CountByStatus(ctx context.Context, status lifecycle.Status) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM faculty WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count faculty: %w", err)
	}
	return total, nil
}

// CountArchived counts archive snapshots.
func (r *FacultyRepository) CountArchived(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM archived_faculty"); err != nil {
		return 0, fmt.Errorf("count archived faculty: %w", err)
	}
	return total, nil
}
