package entity

import "time"

// SkipReason explains why a record was excluded from a batch load.
type SkipReason string

const (
	SkipUnknownSchool SkipReason = "unknown_school"
	SkipMissingName   SkipReason = "missing_name"
)

// SkippedRecord identifies one excluded record by its position in the batch.
type SkippedRecord struct {
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	School string     `json:"school"`
	Reason SkipReason `json:"reason"`
}

// LoadResult summarizes one committed batch.
type LoadResult struct {
	Inserted           int64           `json:"inserted"`
	DepartmentsCreated int             `json:"departments_created"`
	Skipped            []SkippedRecord `json:"skipped,omitempty"`
}

// IngestionReport describes one school's run through the pipeline.
type IngestionReport struct {
	SchoolID     int64       `json:"school_id"`
	SchoolName   string      `json:"school_name"`
	URL          string      `json:"url"`
	Records      int         `json:"records"`
	SnapshotPath string      `json:"snapshot_path,omitempty"`
	Load         *LoadResult `json:"load,omitempty"`
	Err          error       `json:"-"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
}
