package repository

import (
	"context"
	"time"
)

// VisitedRepository guards against re-ingesting a school too soon.
type VisitedRepository interface {
	// MarkVisited marks a school as ingested with a specific expiry time.
	MarkVisited(ctx context.Context, schoolID int64, expiry time.Duration) error
	// IsVisited checks if a school has been ingested recently.
	IsVisited(ctx context.Context, schoolID int64) (bool, error)
	// RemoveVisited removes the mark, used for forced ingestion.
	RemoveVisited(ctx context.Context, schoolID int64) error
}
