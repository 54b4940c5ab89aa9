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

const studentColumns = `id, student_number, first_name, last_name, gender, birth_date, age, email, phone, address, course_id, course_name, status, archived_at, created_at, updated_at`

const archivedStudentColumns = `id, student_number, first_name, last_name, gender, birth_date, age, email, phone, address, course_id, course_name, archived_at, archived_reason`

// StudentRepository manages the students table and its archive twin.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns live students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error) {
	base := "FROM students"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(student_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"student_number": "student_number",
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a live student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByKey checks whether a student number is taken, optionally
// excluding one row.
func (r *StudentRepository) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_number = $1"
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
		return false, fmt.Errorf("check student number: %w", err)
	}
	return true, nil
}

// Insert stores a new student and assigns its id.
func (r *StudentRepository) Insert(ctx context.Context, student *models.Student) (*models.Student, error) {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (student_number, first_name, last_name, gender, birth_date, age, email, phone, address, course_id, course_name, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		student.StudentNumber, student.FirstName, student.LastName, student.Gender,
		student.BirthDate, student.Age, student.Email, student.Phone, student.Address,
		student.CourseID, student.CourseName, student.Status, student.CreatedAt, student.UpdatedAt,
	).Scan(&student.ID); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// Update rewrites an existing student row. Returns sql.ErrNoRows when the
// id vanished between the caller's read and this write.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_number = $2, first_name = $3, last_name = $4, gender = $5, birth_date = $6, age = $7, email = $8, phone = $9, address = $10, course_id = $11, course_name = $12, status = $13, updated_at = $14 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		student.ID, student.StudentNumber, student.FirstName, student.LastName, student.Gender,
		student.BirthDate, student.Age, student.Email, student.Phone, student.Address,
		student.CourseID, student.CourseName, student.Status, student.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check student update rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

// Archive flips the live row to INACTIVE and copies it into
// archived_students in a single transaction. The archived_at IS NULL guard
// makes concurrent archives lose with sql.ErrNoRows.
func (r *StudentRepository) Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedStudent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	flip := fmt.Sprintf(`UPDATE students SET status = $2, archived_at = $3, updated_at = $3 WHERE id = $1 AND archived_at IS NULL RETURNING %s`, studentColumns)
	var student models.Student
	if err := tx.GetContext(ctx, &student, flip, id, lifecycle.StatusInactive, at); err != nil {
		return nil, err
	}

	const insert = `INSERT INTO archived_students (student_number, first_name, last_name, gender, birth_date, age, email, phone, address, course_id, course_name, archived_at, archived_reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	snapshot := models.ArchivedStudent{
		StudentNumber:  student.StudentNumber,
		FirstName:      student.FirstName,
		LastName:       student.LastName,
		Gender:         student.Gender,
		BirthDate:      student.BirthDate,
		Age:            student.Age,
		Email:          student.Email,
		Phone:          student.Phone,
		Address:        student.Address,
		CourseID:       student.CourseID,
		CourseName:     student.CourseName,
		ArchivedAt:     at,
		ArchivedReason: reason,
	}
	if err := tx.QueryRowxContext(ctx, insert,
		snapshot.StudentNumber, snapshot.FirstName, snapshot.LastName, snapshot.Gender,
		snapshot.BirthDate, snapshot.Age, snapshot.Email, snapshot.Phone, snapshot.Address,
		snapshot.CourseID, snapshot.CourseName, snapshot.ArchivedAt, snapshot.ArchivedReason,
	).Scan(&snapshot.ID); err != nil {
		return nil, fmt.Errorf("insert archived student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive student: %w", err)
	}
	return &snapshot, nil
}

// ListArchived returns archive snapshots, newest first.
func (r *StudentRepository) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedStudent, int, error) {
	base := "FROM archived_students"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(student_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY archived_at DESC LIMIT %d OFFSET %d", archivedStudentColumns, base, size, offset)

	var snapshots []models.ArchivedStudent
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list archived students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count archived students: %w", err)
	}
	return snapshots, total, nil
}

// FindSnapshotByID fetches one archive snapshot.
func (r *StudentRepository) FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedStudent, error) {
	query := fmt.Sprintf("SELECT %s FROM archived_students WHERE id = $1", archivedStudentColumns)
	var snapshot models.ArchivedStudent
	if err := r.db.GetContext(ctx, &snapshot, query, id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Restore reactivates the live row matched by student number and removes
// the snapshot, atomically. When no live row matches, the transaction rolls
// back and the snapshot survives, so the operation can be retried.
func (r *StudentRepository) Restore(ctx context.Context, snapshot *models.ArchivedStudent, at time.Time) (*models.Student, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin restore student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	revive := fmt.Sprintf(`UPDATE students SET status = $2, archived_at = NULL, updated_at = $3 WHERE student_number = $1 RETURNING %s`, studentColumns)
	var student models.Student
	if err := tx.GetContext(ctx, &student, revive, snapshot.StudentNumber, lifecycle.StatusActive, at); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM archived_students WHERE id = $1", snapshot.ID); err != nil {
		return nil, fmt.Errorf("delete archived student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restore student: %w", err)
	}
	return &student, nil
}

// ForceDelete permanently removes the snapshot and any live row sharing its
// student number. Deleting the live side is idempotent; the snapshot delete
// reports sql.ErrNoRows when another caller already removed it.
func (r *StudentRepository) ForceDelete(ctx context.Context, snapshot *models.ArchivedStudent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin force delete student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE student_number = $1", snapshot.StudentNumber); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM archived_students WHERE id = $1", snapshot.ID)
	if err != nil {
		return fmt.Errorf("delete archived student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archived student delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit force delete student: %w", err)
	}
	return nil
}

// CountByStatus counts live students in one status.
func (r *StudentRepository) CountByStatus(ctx context.Context, status lifecycle.Status) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountArchived counts archive snapshots.
func (r *StudentRepository) CountArchived(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM archived_students"); err != nil {
		return 0, fmt.Errorf("count archived students: %w", err)
	}
	return total, nil
}
