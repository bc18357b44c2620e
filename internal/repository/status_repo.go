package repository

import (
	"context"

	"github.com/user/rating-ingest/internal/entity"
)

// StatusRepository records the latest ingestion status per school.
type StatusRepository interface {
	Set(ctx context.Context, status *entity.IngestionStatus) error
	// Get returns ErrNotFound when the school was never submitted.
	Get(ctx context.Context, schoolID int64) (*entity.IngestionStatus, error)
}
