package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

// Manager is the single authority for lifecycle transitions of one entity
// kind. Every mutation entry point funnels through it; the HTTP layer and
// the per-kind services never touch the stores' transition methods
// directly.
type Manager[E Entity, S Snapshot] struct {
	kind     string
	label    string
	keyField string
	store    Store[E, S]
	recorder Recorder
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager constructs a Manager for one entity kind. kind is the
// lowercase identifier used in activity actions ("student"); label is the
// human form used in messages ("Student"); keyField names the business key
// in field-level error maps ("student_number").
func NewManager[E Entity, S Snapshot](kind, label, keyField string, store Store[E, S], recorder Recorder, logger *zap.Logger) *Manager[E, S] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager[E, S]{
		kind:     kind,
		label:    label,
		keyField: keyField,
		store:    store,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// WithObserver attaches a transition observer, typically the metrics
// service.
func (m *Manager[E, S]) WithObserver(observer Observer) *Manager[E, S] {
	m.observer = observer
	return m
}

// Kind returns the lowercase kind identifier.
func (m *Manager[E, S]) Kind() string { return m.kind }

// Create inserts a new live record after checking business key uniqueness.
// The caller supplies a fully merged entity; status must already be set.
func (m *Manager[E, S]) Create(ctx context.Context, actor Actor, entity E) (E, error) {
	var zero E
	if !entity.EntityStatus().Valid() {
		return zero, appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s payload", m.kind)),
			map[string]string{"status": "status must be ACTIVE or INACTIVE"},
		)
	}
	exists, err := m.store.ExistsByKey(ctx, entity.EntityKey(), 0)
	if err != nil {
		return zero, m.internal(err, "failed to check %s key", m.kind)
	}
	if exists {
		return zero, m.duplicate(entity.EntityKey())
	}
	created, err := m.store.Insert(ctx, entity)
	if err != nil {
		return zero, m.internal(err, "failed to create %s", m.kind)
	}
	m.record(ctx, actor, ActionCreate, created.EntityID(), fmt.Sprintf("%s %s created", m.label, created.EntityKey()))
	return created, nil
}

// Update persists an already merged entity. A business key collision with a
// different row is rejected; a vanished target surfaces as not-found.
func (m *Manager[E, S]) Update(ctx context.Context, actor Actor, entity E) (E, error) {
	var zero E
	if !entity.EntityStatus().Valid() {
		return zero, appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s payload", m.kind)),
			map[string]string{"status": "status must be ACTIVE or INACTIVE"},
		)
	}
	exists, err := m.store.ExistsByKey(ctx, entity.EntityKey(), entity.EntityID())
	if err != nil {
		return zero, m.internal(err, "failed to check %s key", m.kind)
	}
	if exists {
		return zero, m.duplicate(entity.EntityKey())
	}
	updated, err := m.store.Update(ctx, entity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, m.notFound()
		}
		return zero, m.internal(err, "failed to update %s", m.kind)
	}
	m.record(ctx, actor, ActionUpdate, updated.EntityID(), fmt.Sprintf("%s %s updated", m.label, updated.EntityKey()))
	return updated, nil
}

// Archive flips the live row to INACTIVE and mirrors it into the archive
// table in one transaction. Protected rows are refused without mutation.
// Plain Update never crosses here: only this operation creates a snapshot.
func (m *Manager[E, S]) Archive(ctx context.Context, actor Actor, id int64) (S, error) {
	var zero S
	entity, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, m.notFound()
		}
		return zero, m.internal(err, "failed to load %s", m.kind)
	}
	if entity.IsProtected() {
		return zero, appErrors.Clone(appErrors.ErrProtectedEntity, fmt.Sprintf("Default %s cannot be deleted.", m.label))
	}
	snapshot, err := m.store.Archive(ctx, id, m.now().UTC(), DefaultArchiveReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A concurrent archive won the row: the precondition no
			// longer matches, the loser sees a not-found.
			return zero, m.notFound()
		}
		return zero, m.internal(err, "failed to archive %s", m.kind)
	}
	m.record(ctx, actor, ActionArchive, entity.EntityID(), fmt.Sprintf("%s %s moved to archive", m.label, entity.EntityKey()))
	return snapshot, nil
}

// Restore rejoins the archive snapshot with the live row by business key,
// reactivates it and removes the snapshot, all in one transaction. A
// missing live row is a retryable condition: the snapshot stays put.
func (m *Manager[E, S]) Restore(ctx context.Context, actor Actor, archiveID int64) (E, error) {
	var zero E
	snapshot, err := m.store.FindSnapshotByID(ctx, archiveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, m.notFound()
		}
		return zero, m.internal(err, "failed to load archived %s", m.kind)
	}
	entity, err := m.store.Restore(ctx, snapshot, m.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, appErrors.Clone(appErrors.ErrOriginalMissing, fmt.Sprintf("Original %s record not found.", m.label))
		}
		return zero, m.internal(err, "failed to restore %s", m.kind)
	}
	m.record(ctx, actor, ActionRestore, entity.EntityID(), fmt.Sprintf("%s %s restored from archive", m.label, entity.EntityKey()))
	return entity, nil
}

// ForceDelete permanently removes the snapshot and, when still present, the
// live row. It is idempotent on the live side and irreversible.
func (m *Manager[E, S]) ForceDelete(ctx context.Context, actor Actor, archiveID int64) error {
	snapshot, err := m.store.FindSnapshotByID(ctx, archiveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m.notFound()
		}
		return m.internal(err, "failed to load archived %s", m.kind)
	}
	if err := m.store.ForceDelete(ctx, snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m.notFound()
		}
		return m.internal(err, "failed to delete archived %s", m.kind)
	}
	m.record(ctx, actor, ActionForceDelete, snapshot.SnapshotID(), fmt.Sprintf("%s %s permanently deleted", m.label, snapshot.OriginKey()))
	return nil
}

func (m *Manager[E, S]) record(ctx context.Context, actor Actor, action string, entityID int64, details string) {
	if m.observer != nil {
		m.observer.ObserveTransition(m.kind, action)
	}
	if m.recorder == nil {
		return
	}
	m.recorder.Record(ctx, Entry{
		AdminID:    actor.AdminID,
		Action:     m.kind + "." + action,
		EntityKind: m.kind,
		EntityID:   entityID,
		IPAddress:  actor.IPAddress,
		Details:    details,
		OccurredAt: m.now().UTC(),
	})
}

func (m *Manager[E, S]) notFound() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", m.kind))
}

func (m *Manager[E, S]) duplicate(key string) *appErrors.Error {
	return appErrors.WithFields(
		appErrors.Clone(appErrors.ErrDuplicateKey, fmt.Sprintf("%s %s already in use", m.kind, m.keyField)),
		map[string]string{m.keyField: fmt.Sprintf("%q is already in use", key)},
	)
}

func (m *Manager[E, S]) internal(err error, format string, args ...interface{}) *appErrors.Error {
	wrapped := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf(format, args...))
	m.logger.Error("lifecycle operation failed", zap.String("kind", m.kind), zap.Error(err))
	return wrapped
}
