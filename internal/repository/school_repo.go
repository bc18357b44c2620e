package repository

import (
	"context"

	"github.com/user/rating-ingest/internal/entity"
)

// SchoolRepository manages the school identity table.
type SchoolRepository interface {
	// Seed inserts catalog entries, leaving existing ids untouched. It
	// returns the number of rows actually inserted.
	Seed(ctx context.Context, catalog entity.Catalog) (int64, error)
	// FindByID returns ErrNotFound when the id is unknown.
	FindByID(ctx context.Context, id int64) (*entity.School, error)
	List(ctx context.Context) ([]entity.School, error)
}
