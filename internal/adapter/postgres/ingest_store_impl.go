package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
)

var instructorColumns = []string{
	"instructor_name",
	"department_id",
	"school_id",
	"quality",
	"total_ratings",
	"retake_percent",
	"difficulty",
}

// IngestStoreImpl provides a concrete implementation for the IngestStore interface using PostgreSQL.
type IngestStoreImpl struct {
	db *pgxpool.Pool
}

// NewIngestStore creates a new instance of IngestStoreImpl.
func NewIngestStore(db *pgxpool.Pool) *IngestStoreImpl {
	return &IngestStoreImpl{db: db}
}

// BeginBatch opens the transaction that scopes one batch load.
func (s *IngestStoreImpl) BeginBatch(ctx context.Context) (repository.BatchTx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &batchTx{tx: tx}, nil
}

type batchTx struct {
	tx pgx.Tx
}

func (b *batchTx) SchoolIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := b.tx.Query(ctx, `SELECT school_id, school_name FROM schools`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// InsertDepartment relies on RETURNING producing no row when the conflict
// clause skipped the insert.
func (b *batchTx) InsertDepartment(ctx context.Context, name string) (int64, bool, error) {
	query := `
		INSERT INTO departments (department_name)
		VALUES ($1)
		ON CONFLICT (department_name) DO NOTHING
		RETURNING department_id;
	`
	var id int64
	err := b.tx.QueryRow(ctx, query, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (b *batchTx) DepartmentID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := b.tx.QueryRow(ctx, `SELECT department_id FROM departments WHERE department_name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	return id, err
}

// InsertInstructors streams all rows with COPY in a single round trip.
func (b *batchTx) InsertInstructors(ctx context.Context, rows []entity.Instructor) (int64, error) {
	return b.tx.CopyFrom(ctx,
		pgx.Identifier{"instructors"},
		instructorColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.Name,
				r.DepartmentID,
				r.SchoolID,
				r.Quality,
				r.TotalRatings,
				r.RetakePercent,
				r.Difficulty,
			}, nil
		}),
	)
}

func (b *batchTx) Commit(ctx context.Context) error {
	return b.tx.Commit(ctx)
}

// Rollback is a no-op after a successful Commit.
func (b *batchTx) Rollback(ctx context.Context) error {
	err := b.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
