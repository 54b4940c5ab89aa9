package models

import (
	"time"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
)

// Student represents a learner registered in the institution. The student
// number is the human-assigned business key and survives archival; the
// numeric id is only stable while the row lives in the students table.
type Student struct {
	ID            int64            `db:"id" json:"id"`
	StudentNumber string           `db:"student_number" json:"student_number"`
	FirstName     string           `db:"first_name" json:"first_name"`
	LastName      string           `db:"last_name" json:"last_name"`
	Gender        string           `db:"gender" json:"gender"`
	BirthDate     *time.Time       `db:"birth_date" json:"birth_date,omitempty"`
	Age           *int             `db:"age" json:"age,omitempty"`
	Email         string           `db:"email" json:"email"`
	Phone         string           `db:"phone" json:"phone"`
	Address       string           `db:"address" json:"address"`
	CourseID      *int64           `db:"course_id" json:"course_id,omitempty"`
	CourseName    *string          `db:"course_name" json:"course_name,omitempty"`
	Status        lifecycle.Status `db:"status" json:"status"`
	ArchivedAt    *time.Time       `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

func (s *Student) EntityID() int64 { return s.ID }
func (s *Student) EntityKey() string { return s.StudentNumber }
func (s *Student) EntityStatus() lifecycle.Status { return s.Status }
func (s *Student) IsProtected() bool { return false }

// ArchivedStudent is the denormalized snapshot written when a student is
// archived. It is keyed by its own id; the student_number joins it back to
// the origin row.
type ArchivedStudent struct {
	ID             int64      `db:"id" json:"id"`
	StudentNumber  string     `db:"student_number" json:"student_number"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Gender         string     `db:"gender" json:"gender"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Age            *int       `db:"age" json:"age,omitempty"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	Address        string     `db:"address" json:"address"`
	CourseID       *int64     `db:"course_id" json:"course_id,omitempty"`
	CourseName     *string    `db:"course_name" json:"course_name,omitempty"`
	ArchivedAt     time.Time  `db:"archived_at" json:"archived_at"`
	ArchivedReason string     `db:"archived_reason" json:"archived_reason"`
}

func (a *ArchivedStudent) SnapshotID() int64 { return a.ID }
func (a *ArchivedStudent) OriginKey() string { return a.StudentNumber }
