package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
)

// SchoolRepoImpl provides a concrete implementation for the SchoolRepository interface using PostgreSQL.
type SchoolRepoImpl struct {
	db *pgxpool.Pool
}

// NewSchoolRepo creates a new instance of SchoolRepoImpl.
func NewSchoolRepo(db *pgxpool.Pool) *SchoolRepoImpl {
	return &SchoolRepoImpl{db: db}
}

// Seed inserts the whole catalog in one transaction. Ids that already exist
// keep their current name.
func (r *SchoolRepoImpl) Seed(ctx context.Context, catalog entity.Catalog) (int64, error) {
	schools := catalog.Schools()
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range schools {
		batch.Queue(`INSERT INTO schools (school_id, school_name) VALUES ($1, $2)
		             ON CONFLICT (school_id) DO NOTHING`, s.ID, s.Name)
	}
	results := tx.SendBatch(ctx, batch)
	var inserted int64
	for range schools {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, err
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	return inserted, tx.Commit(ctx)
}

// FindByID retrieves one school, or repository.ErrNotFound.
func (r *SchoolRepoImpl) FindByID(ctx context.Context, id int64) (*entity.School, error) {
	var s entity.School
	err := r.db.QueryRow(ctx, `SELECT school_id, school_name FROM schools WHERE school_id = $1`, id).Scan(&s.ID, &s.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns every school ordered by id.
func (r *SchoolRepoImpl) List(ctx context.Context) ([]entity.School, error) {
	rows, err := r.db.Query(ctx, `SELECT school_id, school_name FROM schools ORDER BY school_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[entity.School])
}
