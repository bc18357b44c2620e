package response

import "time"

type SubmitIngestionResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	SchoolID int64  `json:"school_id"`
}

// IngestionStatusResponse is a DTO for ingestion status, mirroring entity.IngestionStatus
type IngestionStatusResponse struct {
	SchoolID      int64      `json:"school_id"`
	CurrentStatus string     `json:"current_status"` // "queued", "running", "completed", "failed"
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	Inserted      int64      `json:"inserted"`
	Skipped       int        `json:"skipped"`
}

// DataResponse wraps aggregate query results. Status is "ok" with Data set,
// or "no_data" when the filters excluded every row.
type DataResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}
