package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[int64]models.Course
	archive map[int64]models.ArchivedCourse
	nextID  int64
	archID  int64
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: map[int64]models.Course{}, archive: map[int64]models.ArchivedCourse{}}
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedCourse, int, error) {
	out := make([]models.ArchivedCourse, 0, len(m.archive))
	for _, c := range m.archive {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	for _, c := range m.courses {
		if c.Name == key && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) Insert(ctx context.Context, course *models.Course) (*models.Course, error) {
	m.nextID++
	course.ID = m.nextID
	m.courses[course.ID] = *course
	return course, nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) (*models.Course, error) {
	if _, ok := m.courses[course.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	m.courses[course.ID] = *course
	return course, nil
}

func (m *mockCourseRepo) Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedCourse, error) {
	c, ok := m.courses[id]
	if !ok || c.ArchivedAt != nil {
		return nil, sql.ErrNoRows
	}
	c.Status = lifecycle.StatusInactive
	c.ArchivedAt = &at
	m.courses[id] = c
	m.archID++
	snap := models.ArchivedCourse{ID: m.archID, Name: c.Name, Description: c.Description, ArchivedAt: at, ArchivedReason: reason}
	m.archive[snap.ID] = snap
	return &snap, nil
}

func (m *mockCourseRepo) FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedCourse, error) {
	if c, ok := m.archive[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Restore(ctx context.Context, snapshot *models.ArchivedCourse, at time.Time) (*models.Course, error) {
	for id, c := range m.courses {
		if c.Name == snapshot.Name {
			c.Status = lifecycle.StatusActive
			c.ArchivedAt = nil
			m.courses[id] = c
			delete(m.archive, snapshot.ID)
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ForceDelete(ctx context.Context, snapshot *models.ArchivedCourse) error {
	if _, ok := m.archive[snapshot.ID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.archive, snapshot.ID)
	for id, c := range m.courses {
		if c.Name == snapshot.Name {
			delete(m.courses, id)
		}
	}
	return nil
}

func TestCourseServiceCreateDefaultsStatus(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, Deps{})

	course, err := svc.Create(context.Background(), lifecycle.Actor{}, CreateCourseRequest{Name: "Mathematics"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusActive, course.Status)
}

func TestCourseServiceCreateKeepsExplicitStatus(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, Deps{})

	course, err := svc.Create(context.Background(), lifecycle.Actor{}, CreateCourseRequest{Name: "Latin", Status: "INACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusInactive, course.Status)
}

func TestCourseServiceArchiveProtected(t *testing.T) {
	repo := newMockCourseRepo()
	repo.nextID++
	repo.courses[repo.nextID] = models.Course{ID: repo.nextID, Name: "Unassigned", IsDefault: true, Status: lifecycle.StatusActive}
	svc := NewCourseService(repo, Deps{})

	_, err := svc.Archive(context.Background(), lifecycle.Actor{}, repo.nextID)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrProtectedEntity.Code, appErr.Code)
	assert.Equal(t, "Default Course cannot be deleted.", appErr.Message)
	assert.Empty(t, repo.archive)
	assert.Equal(t, lifecycle.StatusActive, repo.courses[repo.nextID].Status)
}

func TestCourseServiceUpdateCannotTouchDefaultFlag(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, Deps{})

	course, err := svc.Create(context.Background(), lifecycle.Actor{}, CreateCourseRequest{Name: "History"})
	require.NoError(t, err)

	desc := "Ancient to modern"
	updated, err := svc.Update(context.Background(), lifecycle.Actor{}, course.ID, UpdateCourseRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Ancient to modern", updated.Description)
	assert.False(t, updated.IsDefault)
}
