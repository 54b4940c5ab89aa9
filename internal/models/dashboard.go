package models

import "time"

// KindCounts breaks down one record kind for the dashboard.
type KindCounts struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Archived int `json:"archived"`
}

// DashboardStats is the aggregate shown on the admin landing screen.
type DashboardStats struct {
	Students    KindCounts `json:"students"`
	Faculty     KindCounts `json:"faculty"`
	Courses     KindCounts `json:"courses"`
	Departments KindCounts `json:"departments"`
	GeneratedAt time.Time  `json:"generated_at"`
}
