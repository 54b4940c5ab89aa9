package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/middleware"
	"github.com/edukasys/sfa-records-api/internal/models"
	"github.com/edukasys/sfa-records-api/internal/service"
	"github.com/edukasys/sfa-records-api/pkg/response"
)

type courseRepoStub struct {
	live    map[int64]models.Course
	archive map[int64]models.ArchivedCourse
	nextID  int64
}

func newCourseRepoStub() *courseRepoStub {
	return &courseRepoStub{
		live:    map[int64]models.Course{},
		archive: map[int64]models.ArchivedCourse{},
		nextID:  1,
	}
}

func (s *courseRepoStub) List(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(s.live))
	for _, c := range s.live {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *courseRepoStub) ListArchived(ctx context.Context, filter models.ListFilter) ([]models.ArchivedCourse, int, error) {
	out := make([]models.ArchivedCourse, 0, len(s.archive))
	for _, c := range s.archive {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	c, ok := s.live[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *courseRepoStub) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	for _, c := range s.live {
		if c.Name == key && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseRepoStub) Insert(ctx context.Context, course *models.Course) (*models.Course, error) {
	course.ID = s.nextID
	s.nextID++
	s.live[course.ID] = *course
	return course, nil
}

func (s *courseRepoStub) Update(ctx context.Context, course *models.Course) (*models.Course, error) {
	if _, ok := s.live[course.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	s.live[course.ID] = *course
	return course, nil
}

func (s *courseRepoStub) Archive(ctx context.Context, id int64, at time.Time, reason string) (*models.ArchivedCourse, error) {
	c, ok := s.live[id]
	if !ok || c.ArchivedAt != nil {
		return nil, sql.ErrNoRows
	}
	c.Status = lifecycle.StatusInactive
	c.ArchivedAt = &at
	s.live[id] = c
	snapshot := models.ArchivedCourse{ID: s.nextID, Name: c.Name, Description: c.Description, ArchivedAt: at, ArchivedReason: reason}
	s.nextID++
	s.archive[snapshot.ID] = snapshot
	return &snapshot, nil
}

func (s *courseRepoStub) FindSnapshotByID(ctx context.Context, id int64) (*models.ArchivedCourse, error) {
	c, ok := s.archive[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *courseRepoStub) Restore(ctx context.Context, snapshot *models.ArchivedCourse, at time.Time) (*models.Course, error) {
	for id, c := range s.live {
		if c.Name == snapshot.Name {
			c.Status = lifecycle.StatusActive
			c.ArchivedAt = nil
			s.live[id] = c
			delete(s.archive, snapshot.ID)
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *courseRepoStub) ForceDelete(ctx context.Context, snapshot *models.ArchivedCourse) error {
	if _, ok := s.archive[snapshot.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, c := range s.live {
		if c.Name == snapshot.Name {
			delete(s.live, id)
		}
	}
	delete(s.archive, snapshot.ID)
	return nil
}

func newCourseTestContext(t *testing.T, w *httptest.ResponseRecorder, method, target string, body []byte) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextAdminKey, &models.JWTClaims{AdminID: 1, Username: "admin"})
	return c
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestCourseHandlerCreate(t *testing.T) {
	repo := newCourseRepoStub()
	handler := NewCourseHandler(service.NewCourseService(repo, service.Deps{}))

	body, _ := json.Marshal(service.CreateCourseRequest{Name: "Mathematics"})
	w := httptest.NewRecorder()
	c := newCourseTestContext(t, w, http.MethodPost, "/courses", body)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Mathematics", data["name"])
	assert.Equal(t, "ACTIVE", data["status"])
}

func TestCourseHandlerCreateInvalidJSON(t *testing.T) {
	handler := NewCourseHandler(service.NewCourseService(newCourseRepoStub(), service.Deps{}))

	w := httptest.NewRecorder()
	c := newCourseTestContext(t, w, http.MethodPost, "/courses", []byte(`{"name":`))

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerCreateValidation(t *testing.T) {
	handler := NewCourseHandler(service.NewCourseService(newCourseRepoStub(), service.Deps{}))

	body, _ := json.Marshal(service.CreateCourseRequest{Status: "ACTIVE"})
	w := httptest.NewRecorder()
	c := newCourseTestContext(t, w, http.MethodPost, "/courses", body)

	handler.Create(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Fields, "name")
}

func TestCourseHandlerArchiveDefaultCourse(t *testing.T) {
	repo := newCourseRepoStub()
	repo.live[1] = models.Course{ID: 1, Name: "Unassigned", IsDefault: true, Status: lifecycle.StatusActive}
	repo.nextID = 2
	handler := NewCourseHandler(service.NewCourseService(repo, service.Deps{}))

	w := httptest.NewRecorder()
	c := newCourseTestContext(t, w, http.MethodDelete, "/courses/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Archive(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Default Course cannot be deleted.", envelope.Error.Message)
	assert.Len(t, repo.archive, 0)
}

func TestCourseHandlerArchiveThenForceDelete(t *testing.T) {
	repo := newCourseRepoStub()
	repo.live[1] = models.Course{ID: 1, Name: "Latin", Status: lifecycle.StatusActive}
	repo.nextID = 2
	handler := NewCourseHandler(service.NewCourseService(repo, service.Deps{}))

	w := httptest.NewRecorder()
	c := newCourseTestContext(t, w, http.MethodDelete, "/courses/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Archive(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Course archived successfully.", decodeEnvelope(t, w).Message)
	require.Len(t, repo.archive, 1)

	w = httptest.NewRecorder()
	c = newCourseTestContext(t, w, http.MethodDelete, "/archived-courses/2/force", nil)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	handler.ForceDelete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Course deleted permanently.", decodeEnvelope(t, w).Message)
	assert.Len(t, repo.live, 0)
	assert.Len(t, repo.archive, 0)
}

func TestCourseHandlerRestoreOriginalMissing(t *testing.T) {
	repo := newCourseRepoStub()
	repo.archive[5] = models.ArchivedCourse{ID: 5, Name: "Latin", ArchivedAt: time.Now(), ArchivedReason: "Moved to inactive status"}
	handler := NewCourseHandler(service.NewCourseService(repo, service.Deps{}))

	w := httptest.NewRecorder()
	c := newCourseTestContext(t, w, http.MethodPost, "/archived-courses/5/restore", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Restore(c)
	require.Equal(t, http.StatusNotFound, w.Code)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Original Course record not found.", envelope.Error.Message)
	// Snapshot survives so the restore can be retried.
	assert.Len(t, repo.archive, 1)
}
