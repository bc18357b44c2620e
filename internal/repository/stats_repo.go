package repository

import (
	"context"

	"github.com/user/rating-ingest/internal/entity"
)

// StatsRepository is the read-only query surface used by the dashboard.
// Every method returns ErrNoData when its filters exclude all rows.
type StatsRepository interface {
	DepartmentAverages(ctx context.Context, schoolID int64, minRatings int) ([]entity.DepartmentAverage, error)
	DepartmentDistribution(ctx context.Context, department string, minRatings int) ([]entity.SchoolAverage, error)
	SearchInstructors(ctx context.Context, prefix string, limit int) ([]entity.InstructorMatch, error)
	UnscrapedSchools(ctx context.Context) ([]entity.School, error)
}
