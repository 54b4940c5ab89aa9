package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

type fakeEntity struct {
	ID        int64
	Key       string
	Name      string
	Status    Status
	Protected bool
	Archived  *time.Time
}

func (e *fakeEntity) EntityID() int64      { return e.ID }
func (e *fakeEntity) EntityKey() string    { return e.Key }
func (e *fakeEntity) EntityStatus() Status { return e.Status }
func (e *fakeEntity) IsProtected() bool    { return e.Protected }

type fakeSnapshot struct {
	ID     int64
	Key    string
	Name   string
	At     time.Time
	Reason string
}

func (s *fakeSnapshot) SnapshotID() int64 { return s.ID }
func (s *fakeSnapshot) OriginKey() string { return s.Key }

// fakeStore mirrors the dual-table semantics in memory: a live map keyed
// by id and an archive map keyed by archive id, joined by business key.
type fakeStore struct {
	live       map[int64]*fakeEntity
	archive    map[int64]*fakeSnapshot
	nextID     int64
	nextArchID int64
	failInsert error
	failArch   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{live: map[int64]*fakeEntity{}, archive: map[int64]*fakeSnapshot{}}
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*fakeEntity, error) {
	if e, ok := s.live[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStore) ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error) {
	for _, e := range s.live {
		if e.Key == key && e.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Insert(ctx context.Context, entity *fakeEntity) (*fakeEntity, error) {
	if s.failInsert != nil {
		return nil, s.failInsert
	}
	s.nextID++
	entity.ID = s.nextID
	clone := *entity
	s.live[entity.ID] = &clone
	return entity, nil
}

func (s *fakeStore) Update(ctx context.Context, entity *fakeEntity) (*fakeEntity, error) {
	if _, ok := s.live[entity.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	clone := *entity
	s.live[entity.ID] = &clone
	return entity, nil
}

func (s *fakeStore) Archive(ctx context.Context, id int64, at time.Time, reason string) (*fakeSnapshot, error) {
	if s.failArch != nil {
		return nil, s.failArch
	}
	e, ok := s.live[id]
	if !ok || e.Archived != nil {
		return nil, sql.ErrNoRows
	}
	e.Status = StatusInactive
	e.Archived = &at
	s.nextArchID++
	snap := &fakeSnapshot{ID: s.nextArchID, Key: e.Key, Name: e.Name, At: at, Reason: reason}
	s.archive[snap.ID] = snap
	return snap, nil
}

func (s *fakeStore) FindSnapshotByID(ctx context.Context, id int64) (*fakeSnapshot, error) {
	if snap, ok := s.archive[id]; ok {
		clone := *snap
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStore) Restore(ctx context.Context, snapshot *fakeSnapshot, at time.Time) (*fakeEntity, error) {
	for _, e := range s.live {
		if e.Key == snapshot.Key {
			e.Status = StatusActive
			e.Archived = nil
			delete(s.archive, snapshot.ID)
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeStore) ForceDelete(ctx context.Context, snapshot *fakeSnapshot) error {
	if _, ok := s.archive[snapshot.ID]; !ok {
		return sql.ErrNoRows
	}
	delete(s.archive, snapshot.ID)
	for id, e := range s.live {
		if e.Key == snapshot.Key {
			delete(s.live, id)
		}
	}
	return nil
}

type fakeRecorder struct {
	entries []Entry
}

func (r *fakeRecorder) Record(ctx context.Context, entry Entry) {
	r.entries = append(r.entries, entry)
}

func newTestManager(store *fakeStore, recorder Recorder) *Manager[*fakeEntity, *fakeSnapshot] {
	return NewManager[*fakeEntity, *fakeSnapshot]("student", "Student", "student_number", store, recorder, nil)
}

func seedEntity(store *fakeStore, key string) *fakeEntity {
	store.nextID++
	e := &fakeEntity{ID: store.nextID, Key: key, Name: "Seeded", Status: StatusActive}
	store.live[e.ID] = e
	return e
}

func TestManagerCreate(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	mgr := newTestManager(store, recorder)

	created, err := mgr.Create(context.Background(), Actor{AdminID: 1}, &fakeEntity{Key: "S-001", Name: "Ana", Status: StatusActive})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "student.create", recorder.entries[0].Action)
}

func TestManagerCreateDuplicateKey(t *testing.T) {
	store := newFakeStore()
	seedEntity(store, "S-001")
	mgr := newTestManager(store, nil)

	_, err := mgr.Create(context.Background(), Actor{}, &fakeEntity{Key: "S-001", Status: StatusActive})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "student_number")
}

func TestManagerCreateRejectsInvalidStatus(t *testing.T) {
	mgr := newTestManager(newFakeStore(), nil)

	_, err := mgr.Create(context.Background(), Actor{}, &fakeEntity{Key: "S-001", Status: Status("PENDING")})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestManagerUpdateNeverArchives(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "S-001")
	mgr := newTestManager(store, nil)

	// Flipping status to INACTIVE through Update must not create a
	// snapshot or stamp an archive timestamp.
	updated, err := mgr.Update(context.Background(), Actor{}, &fakeEntity{ID: e.ID, Key: e.Key, Status: StatusInactive})
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, updated.Status)
	assert.Nil(t, store.live[e.ID].Archived)
	assert.Empty(t, store.archive)
}

func TestManagerUpdateVanishedTarget(t *testing.T) {
	mgr := newTestManager(newFakeStore(), nil)

	_, err := mgr.Update(context.Background(), Actor{}, &fakeEntity{ID: 42, Key: "S-001", Status: StatusActive})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestManagerArchive(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "S-001")
	recorder := &fakeRecorder{}
	mgr := newTestManager(store, recorder)

	snapshot, err := mgr.Archive(context.Background(), Actor{AdminID: 1}, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "S-001", snapshot.Key)
	assert.Equal(t, DefaultArchiveReason, snapshot.Reason)

	// Live row stays, flipped to INACTIVE with archived_at stamped.
	live := store.live[e.ID]
	assert.Equal(t, StatusInactive, live.Status)
	assert.NotNil(t, live.Archived)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "student.archive", recorder.entries[0].Action)
}

func TestManagerArchiveProtected(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "default")
	store.live[e.ID].Protected = true
	mgr := NewManager[*fakeEntity, *fakeSnapshot]("course", "Course", "name", store, nil, nil)

	_, err := mgr.Archive(context.Background(), Actor{}, e.ID)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrProtectedEntity.Code, appErr.Code)
	assert.Equal(t, "Default Course cannot be deleted.", appErr.Message)
	// No mutation happened.
	assert.Equal(t, StatusActive, store.live[e.ID].Status)
	assert.Empty(t, store.archive)
}

func TestManagerArchiveRaceLoser(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "S-001")
	mgr := newTestManager(store, nil)

	_, err := mgr.Archive(context.Background(), Actor{}, e.ID)
	require.NoError(t, err)

	// The row is already archived: the precondition fails and the second
	// caller sees a plain not-found.
	_, err = mgr.Archive(context.Background(), Actor{}, e.ID)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestManagerRestoreRoundTrip(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "S-001")
	recorder := &fakeRecorder{}
	mgr := newTestManager(store, recorder)

	snapshot, err := mgr.Archive(context.Background(), Actor{}, e.ID)
	require.NoError(t, err)

	restored, err := mgr.Restore(context.Background(), Actor{}, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, "S-001", restored.Key)
	assert.Equal(t, StatusActive, restored.Status)
	assert.Nil(t, restored.Archived)
	assert.Empty(t, store.archive)
	assert.Equal(t, "student.restore", recorder.entries[len(recorder.entries)-1].Action)
}

func TestManagerRestoreOriginalMissing(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "S-001")
	mgr := newTestManager(store, nil)

	snapshot, err := mgr.Archive(context.Background(), Actor{}, e.ID)
	require.NoError(t, err)

	// Simulate the live row disappearing while the snapshot survives.
	delete(store.live, e.ID)

	_, err = mgr.Restore(context.Background(), Actor{}, snapshot.ID)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrOriginalMissing.Code, appErr.Code)
	assert.Equal(t, "Original Student record not found.", appErr.Message)

	// The snapshot is untouched: the condition is retryable.
	_, ok := store.archive[snapshot.ID]
	assert.True(t, ok)

	// Re-seeding the live row makes the same restore call succeed.
	store.live[e.ID] = &fakeEntity{ID: e.ID, Key: "S-001", Status: StatusInactive}
	restored, err := mgr.Restore(context.Background(), Actor{}, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, restored.Status)
}

func TestManagerForceDeleteIdempotentLiveSide(t *testing.T) {
	store := newFakeStore()
	e := seedEntity(store, "S-001")
	mgr := newTestManager(store, nil)

	snapshot, err := mgr.Archive(context.Background(), Actor{}, e.ID)
	require.NoError(t, err)

	// Live row already gone: force delete still succeeds.
	delete(store.live, e.ID)
	require.NoError(t, mgr.ForceDelete(context.Background(), Actor{}, snapshot.ID))
	assert.Empty(t, store.archive)

	// Second call targets a missing snapshot.
	err = mgr.ForceDelete(context.Background(), Actor{}, snapshot.ID)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestManagerRecorderFailureIsInvisible(t *testing.T) {
	store := newFakeStore()
	mgr := newTestManager(store, nil) // nil recorder: nothing to call

	created, err := mgr.Create(context.Background(), Actor{}, &fakeEntity{Key: "S-001", Status: StatusActive})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}
