package models

import (
	"time"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
)

// Faculty represents a member of the teaching staff. The faculty number
// plays the same business-key role as the student number.
type Faculty struct {
	ID             int64            `db:"id" json:"id"`
	FacultyNumber  string           `db:"faculty_number" json:"faculty_number"`
	FirstName      string           `db:"first_name" json:"first_name"`
	LastName       string           `db:"last_name" json:"last_name"`
	Gender         string           `db:"gender" json:"gender"`
	BirthDate      *time.Time       `db:"birth_date" json:"birth_date,omitempty"`
	Age            *int             `db:"age" json:"age,omitempty"`
	Email          string           `db:"email" json:"email"`
	Phone          string           `db:"phone" json:"phone"`
	Address        string           `db:"address" json:"address"`
	Position       string           `db:"position" json:"position"`
	DepartmentID   *int64           `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string          `db:"department_name" json:"department_name,omitempty"`
	Status         lifecycle.Status `db:"status" json:"status"`
	ArchivedAt     *time.Time       `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

func (f *Faculty) EntityID() int64 { return f.ID }
func (f *Faculty) EntityKey() string { return f.FacultyNumber }
func (f *Faculty) EntityStatus() lifecycle.Status { return f.Status }
func (f *Faculty) IsProtected() bool { return false }

// ArchivedFaculty is the denormalized archive snapshot of a faculty row.
type ArchivedFaculty struct {
	ID             int64      `db:"id" json:"id"`
	FacultyNumber  string     `db:"faculty_number" json:"faculty_number"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Gender         string     `db:"gender" json:"gender"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Age            *int       `db:"age" json:"age,omitempty"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	Address        string     `db:"address" json:"address"`
	Position       string     `db:"position" json:"position"`
	DepartmentID   *int64     `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string    `db:"department_name" json:"department_name,omitempty"`
	ArchivedAt     time.Time  `db:"archived_at" json:"archived_at"`
	ArchivedReason string     `db:"archived_reason" json:"archived_reason"`
}

func (a *ArchivedFaculty) SnapshotID() int64 { return a.ID }
func (a *ArchivedFaculty) OriginKey() string { return a.FacultyNumber }
