package models

import "time"

// ActivityLog is one append-only audit record written after a successful
// lifecycle transition or profile change.
type ActivityLog struct {
	ID         string    `db:"id" json:"id"`
	AdminID    int64     `db:"admin_id" json:"admin_id"`
	Action     string    `db:"action" json:"action"`
	EntityKind string    `db:"entity_kind" json:"entity_kind"`
	EntityID   int64     `db:"entity_id" json:"entity_id"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	Details    string    `db:"details" json:"details"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter narrows the activity log listing.
type ActivityFilter struct {
	Action     string
	EntityKind string
	Page       int
	PageSize   int
}
