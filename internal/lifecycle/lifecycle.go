package lifecycle

import (
	"context"
	"time"
)

// Status enumerates the live states of a record.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// DefaultArchiveReason is stamped on every snapshot taken by Archive.
const DefaultArchiveReason = "Moved to inactive status"

// Transition verbs appended to the entity kind in activity actions,
// e.g. "student.archive".
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionArchive     = "archive"
	ActionRestore     = "restore"
	ActionForceDelete = "force_delete"
)

// Actor identifies who triggered a transition.
type Actor struct {
	AdminID   int64
	IPAddress string
}

// Entity is a live record that moves through the archive lifecycle.
// The business key is assigned by humans and stays stable across
// archival and restoration; the numeric id is only meaningful while
// the record lives in the entity table.
type Entity interface {
	EntityID() int64
	EntityKey() string
	EntityStatus() Status
	IsProtected() bool
}

// Snapshot is a denormalized copy of an entity in the archive table.
// Its id is unrelated to the origin entity's id; the two are joined
// by business key only.
type Snapshot interface {
	SnapshotID() int64
	OriginKey() string
}

// Store joins the live table and the archive table of one entity kind.
// Reads return sql.ErrNoRows when the target is absent. Transitions that
// touch both tables (Archive, Restore, ForceDelete) must be atomic: the
// store wraps them in a single transaction and reports sql.ErrNoRows when
// the live-side precondition no longer holds, so a racing caller simply
// loses with a not-found.
type Store[E Entity, S Snapshot] interface {
	FindByID(ctx context.Context, id int64) (E, error)
	ExistsByKey(ctx context.Context, key string, excludeID int64) (bool, error)
	Insert(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Archive(ctx context.Context, id int64, at time.Time, reason string) (S, error)
	FindSnapshotByID(ctx context.Context, id int64) (S, error)
	Restore(ctx context.Context, snapshot S, at time.Time) (E, error)
	ForceDelete(ctx context.Context, snapshot S) error
}

// Entry is one appended activity record.
type Entry struct {
	AdminID    int64
	Action     string
	EntityKind string
	EntityID   int64
	IPAddress  string
	Details    string
	OccurredAt time.Time
}

// Recorder appends an activity entry after a committed transition.
// Implementations must be fire-and-forget: a failed append is logged and
// swallowed, never surfaced to the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Observer receives a signal per committed transition, for metrics.
type Observer interface {
	ObserveTransition(kind, action string)
}
