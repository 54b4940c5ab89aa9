package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edukasys/sfa-records-api/internal/models"
)

func archivedStudentFixture(id int64, number string) *models.ArchivedStudent {
	return &models.ArchivedStudent{
		ID:             id,
		StudentNumber:  number,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Gender:         "FEMALE",
		Email:          "ada@example.com",
		ArchivedAt:     time.Now().UTC(),
		ArchivedReason: "Moved to inactive status",
	}
}

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRowColumns() []string {
	return []string{"id", "student_number", "first_name", "last_name", "gender", "birth_date", "age", "email", "phone", "address", "course_id", "course_name", "status", "archived_at", "created_at", "updated_at"}
}

func liveStudentRow(id int64, number string, archivedAt interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(studentRowColumns()).
		AddRow(id, number, "Ada", "Lovelace", "FEMALE", nil, nil, "ada@example.com", "", "", nil, nil, "ACTIVE", archivedAt, now, now)
}

func TestStudentRepositoryArchiveCommitsBothLegs(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET status = $2, archived_at = $3")).
		WithArgs(int64(7), "INACTIVE", at).
		WillReturnRows(liveStudentRow(7, "S-2024-001", at))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO archived_students")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectCommit()

	snapshot, err := repo.Archive(context.Background(), 7, at, "Moved to inactive status")
	require.NoError(t, err)
	require.Equal(t, int64(31), snapshot.ID)
	require.Equal(t, "S-2024-001", snapshot.StudentNumber)
	require.Equal(t, "Moved to inactive status", snapshot.ArchivedReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryArchiveAlreadyArchived(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	at := time.Now().UTC()

	// The archived_at IS NULL guard matches no row, so the race loser
	// sees ErrNoRows and nothing commits.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET status = $2, archived_at = $3")).
		WithArgs(int64(7), "INACTIVE", at).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Archive(context.Background(), 7, at, "Moved to inactive status")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryArchiveRollsBackWhenInsertFails(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET status = $2, archived_at = $3")).
		WithArgs(int64(7), "INACTIVE", at).
		WillReturnRows(liveStudentRow(7, "S-2024-001", at))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO archived_students")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Archive(context.Background(), 7, at, "Moved to inactive status")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryRestoreRejoinsByNumber(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET status = $2, archived_at = NULL")).
		WithArgs("S-2024-001", "ACTIVE", at).
		WillReturnRows(liveStudentRow(7, "S-2024-001", nil))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM archived_students WHERE id = $1")).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student, err := repo.Restore(context.Background(), archivedStudentFixture(31, "S-2024-001"), at)
	require.NoError(t, err)
	require.Equal(t, int64(7), student.ID)
	require.Nil(t, student.ArchivedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryRestoreKeepsSnapshotWhenOriginalMissing(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET status = $2, archived_at = NULL")).
		WithArgs("S-2024-001", "ACTIVE", at).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Restore(context.Background(), archivedStudentFixture(31, "S-2024-001"), at)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryForceDelete(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)

	// Live side may delete zero rows; only a missing snapshot is an error.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE student_number = $1")).
		WithArgs("S-2024-001").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM archived_students WHERE id = $1")).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ForceDelete(context.Background(), archivedStudentFixture(31, "S-2024-001")))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE student_number = $1")).
		WithArgs("S-2024-001").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM archived_students WHERE id = $1")).
		WithArgs(int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ForceDelete(context.Background(), archivedStudentFixture(31, "S-2024-001"))
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByKey(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE student_number = $1")).
		WithArgs("S-2024-001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	taken, err := repo.ExistsByKey(context.Background(), "S-2024-001", 0)
	require.NoError(t, err)
	require.True(t, taken)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE student_number = $1")).
		WithArgs("S-2099-404").
		WillReturnError(sql.ErrNoRows)
	taken, err = repo.ExistsByKey(context.Background(), "S-2099-404", 0)
	require.NoError(t, err)
	require.False(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}
