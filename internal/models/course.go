package models

import (
	"time"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
)

// Course is a program of study. The name is the business key; seed courses
// are flagged as default and refuse archival.
type Course struct {
	ID          int64            `db:"id" json:"id"`
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	IsDefault   bool             `db:"is_default" json:"is_default"`
	Status      lifecycle.Status `db:"status" json:"status"`
	ArchivedAt  *time.Time       `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

func (c *Course) EntityID() int64 { return c.ID }
func (c *Course) EntityKey() string { return c.Name }
func (c *Course) EntityStatus() lifecycle.Status { return c.Status }
func (c *Course) IsProtected() bool { return c.IsDefault }

// ArchivedCourse is the archive snapshot of a course row.
type ArchivedCourse struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	ArchivedAt     time.Time `db:"archived_at" json:"archived_at"`
	ArchivedReason string    `db:"archived_reason" json:"archived_reason"`
}

func (a *ArchivedCourse) SnapshotID() int64 { return a.ID }
func (a *ArchivedCourse) OriginKey() string { return a.Name }
