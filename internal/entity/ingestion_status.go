package entity

import "time"

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNotFound  = "not_found"
)

type IngestionStatus struct {
	SchoolID      int64
	CurrentStatus string // "queued", "running", "completed", "failed", "not_found"
	UpdatedAt     *time.Time
	FailureReason string
	Inserted      int64
	Skipped       int
}
