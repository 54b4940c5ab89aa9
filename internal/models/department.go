package models

import (
	"time"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
)

// Department groups faculty members. Same lifecycle shape as Course: the
// name is the business key and seed departments are protected.
type Department struct {
	ID          int64            `db:"id" json:"id"`
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	IsDefault   bool             `db:"is_default" json:"is_default"`
	Status      lifecycle.Status `db:"status" json:"status"`
	ArchivedAt  *time.Time       `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

func (d *Department) EntityID() int64 { return d.ID }
func (d *Department) EntityKey() string { return d.Name }
func (d *Department) EntityStatus() lifecycle.Status { return d.Status }
func (d *Department) IsProtected() bool { return d.IsDefault }

// ArchivedDepartment is the archive snapshot of a department row.
type ArchivedDepartment struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	ArchivedAt     time.Time `db:"archived_at" json:"archived_at"`
	ArchivedReason string    `db:"archived_reason" json:"archived_reason"`
}

func (a *ArchivedDepartment) SnapshotID() int64 { return a.ID }
func (a *ArchivedDepartment) OriginKey() string { return a.Name }
