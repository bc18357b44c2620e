package repository

import (
	"context"

	"github.com/user/rating-ingest/internal/entity"
)

// SnapshotRepository persists extracted tables as columnar files.
type SnapshotRepository interface {
	// Save writes one snapshot named after the school and returns its path.
	Save(ctx context.Context, schoolName string, records []entity.InstructorRecord) (string, error)
	Load(ctx context.Context, path string) ([]entity.InstructorRecord, error)
	// List returns the snapshot files in dir, skipping anything else.
	List(ctx context.Context, dir string) ([]string, error)
}
