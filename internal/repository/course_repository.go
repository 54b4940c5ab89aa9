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

const courseColumns = `id, name, description, is_default, status, archived_at, created_at, updated_at`

const archivedCourseColumns = `id, name, description, archived_at, archived_reason`

// CourseRepository manages the courses table and its archive twin.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns live courses matching the provided filters.
func (r *CourseRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error) {
	base := "FROM courses"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", courseColumns, base, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a live course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByKey checks whether a course name is taken, optionally excluding
// one row.
func (r *CourseRepository) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM courses WHERE name = $1"
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
		return false, fmt.Errorf("check course name: %w", err)
	}
	return true, nil
}

// Insert stores a new course and assigns its id.
func (r *CourseRepository) Insert(ctx context.Context, course *models.Course) (*models.Course, error) {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (name, description, is_default, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		course.Name, course.Description, course.IsDefault, course.Status, course.CreatedAt, course.UpdatedAt,
	).Scan(&course.ID); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// Update rewrites an existing course row.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (*models.Course, error) {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = $2, description = $3, status = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, course.ID, course.Name, course.Description, course.Status, course.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check course update rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

// Archive flips the live row to INACTIVE and copies it into
// archived_courses in a single transaction.
func (r *CourseRepository) Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedCourse, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	flip := fmt.Sprintf(`UPDATE courses SET status = $2, archived_at = $3, updated_at = $3 WHERE id = $1 AND archived_at IS NULL RETURNING %s`, courseColumns)
	var course models.Course
	if err := tx.GetContext(ctx, &course, flip, id, lifecycle.StatusInactive, at); err != nil {
		return nil, err
	}

	const insert = `INSERT INTO archived_courses (name, description, archived_at, archived_reason)
        VALUES ($1, $2, $3, $4) RETURNING id`
	snapshot := models.ArchivedCourse{
		Name:           course.Name,
		Description:    course.Description,
		ArchivedAt:     at,
		ArchivedReason: reason,
	}
	if err := tx.QueryRowxContext(ctx, insert,
		snapshot.Name, snapshot.Description, snapshot.ArchivedAt, snapshot.ArchivedReason,
	).Scan(&snapshot.ID); err != nil {
		return nil, fmt.Errorf("insert archived course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive course: %w", err)
	}
	return &snapshot, nil
}

// ListArchived returns archive snapshots, newest first.
func (r *CourseRepository) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedCourse, int, error) {
	base := "FROM archived_courses"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY archived_at DESC LIMIT %d OFFSET %d", archivedCourseColumns, base, size, offset)

	var snapshots []models.ArchivedCourse
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list archived courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count archived courses: %w", err)
	}
	return snapshots, total, nil
}

// FindSnapshotByID fetches one archive snapshot.
func (r *CourseRepository) FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedCourse, error) {
	query := fmt.Sprintf("SELECT %s FROM archived_courses WHERE id = $1", archivedCourseColumns)
	var snapshot models.ArchivedCourse
	if err := r.db.GetContext(ctx, &snapshot, query, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Restore reactivates the live row matched by name and removes the
// snapshot, atomically.
func (r *CourseRepository) Restore(ctx context.Context, snapshot *models.ArchivedCourse, at time.Time) (*models.Course, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin restore course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	revive := fmt.Sprintf(`UPDATE courses SET status = $2, archived_at = NULL, updated_at = $3 WHERE name = $1 RETURNING %s`, courseColumns)
	var course models.Course
	if err := tx.GetContext(ctx, &course, revive, snapshot.Name, lifecycle.StatusActive, at); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM archived_courses WHERE id = $1", snapshot.ID); err != nil {
		return nil, fmt.Errorf("delete archived course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restore course: %w", err)
	}
	return &course, nil
}

// ForceDelete permanently removes the snapshot and any live row sharing
// its name.
func (r *CourseRepository) ForceDelete(ctx context.Context, snapshot *models.ArchivedCourse) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin force delete course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE name = $1", snapshot.Name); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM archived_courses WHERE id = $1", snapshot.ID)
	if err != nil {
		return fmt.Errorf("delete archived course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archived course delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit force delete course: %w", err)
	}
	return nil
}

// CountByStatus counts live courses in one status.
func (r *CourseRepository) CountByStatus(ctx context.Context, status lifecycle.Status) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}

// CountArchived counts archive snapshots.
func (r *CourseRepository) CountArchived(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM archived_courses"); err != nil {
		return 0, fmt.Errorf("count archived courses: %w", err)
	}
	return total, nil
}
