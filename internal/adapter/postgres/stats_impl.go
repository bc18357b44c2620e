package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
)

// StatsRepoImpl serves the dashboard's read-only aggregate queries.
type StatsRepoImpl struct {
	db *pgxpool.Pool
}

// NewStatsRepo creates a new instance of StatsRepoImpl.
func NewStatsRepo(db *pgxpool.Pool) *StatsRepoImpl {
	return &StatsRepoImpl{db: db}
}

// DepartmentAverages groups one school's instructors by department, counting
// only instructors with at least minRatings ratings.
func (r *StatsRepoImpl) DepartmentAverages(ctx context.Context, schoolID int64, minRatings int) ([]entity.DepartmentAverage, error) {
	query := `
		SELECT d.department_name,
		       COUNT(*),
		       AVG(i.quality),
		       AVG(i.difficulty),
		       AVG(i.retake_percent)
		FROM instructors i
		JOIN departments d ON d.department_id = i.department_id
		WHERE i.school_id = $1 AND i.total_ratings >= $2
		GROUP BY d.department_name
		ORDER BY d.department_name;
	`
	rows, err := r.db.Query(ctx, query, schoolID, minRatings)
	if err != nil {
		return nil, err
	}
	return collectNonEmpty(rows, pgx.RowToStructByPos[entity.DepartmentAverage])
}

// DepartmentDistribution compares one department's average quality across
// schools.
func (r *StatsRepoImpl) DepartmentDistribution(ctx context.Context, department string, minRatings int) ([]entity.SchoolAverage, error) {
	query := `
		SELECT s.school_id,
		       s.school_name,
		       COUNT(*),
		       AVG(i.quality)
		FROM instructors i
		JOIN departments d ON d.department_id = i.department_id
		JOIN schools s ON s.school_id = i.school_id
		WHERE d.department_name = $1 AND i.total_ratings >= $2
		GROUP BY s.school_id, s.school_name
		ORDER BY AVG(i.quality) DESC NULLS LAST, s.school_name;
	`
	rows, err := r.db.Query(ctx, query, department, minRatings)
	if err != nil {
		return nil, err
	}
	return collectNonEmpty(rows, pgx.RowToStructByPos[entity.SchoolAverage])
}

// SearchInstructors autocompletes on a case-insensitive name prefix.
func (r *StatsRepoImpl) SearchInstructors(ctx context.Context, prefix string, limit int) ([]entity.InstructorMatch, error) {
	query := `
		SELECT i.instructor_id, i.instructor_name, s.school_name
		FROM instructors i
		JOIN schools s ON s.school_id = i.school_id
		WHERE lower(i.instructor_name) LIKE lower($1) || '%' ESCAPE '\'
		ORDER BY i.instructor_name, s.school_name
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, escapeLike(prefix), limit)
	if err != nil {
		return nil, err
	}
	return collectNonEmpty(rows, pgx.RowToStructByPos[entity.InstructorMatch])
}

// UnscrapedSchools lists schools without any instructor rows.
func (r *StatsRepoImpl) UnscrapedSchools(ctx context.Context) ([]entity.School, error) {
	query := `
		SELECT s.school_id, s.school_name
		FROM schools s
		WHERE NOT EXISTS (SELECT 1 FROM instructors i WHERE i.school_id = s.school_id)
		ORDER BY s.school_name;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectNonEmpty(rows, pgx.RowToStructByPos[entity.School])
}

func collectNonEmpty[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) ([]T, error) {
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, repository.ErrNoData
	}
	return out, nil
}
