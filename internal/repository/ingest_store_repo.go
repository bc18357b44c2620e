package repository

import (
	"context"

	"github.com/user/rating-ingest/internal/entity"
)

// IngestStore opens transaction-scoped batches against the relational store.
type IngestStore interface {
	BeginBatch(ctx context.Context) (BatchTx, error)
}

// BatchTx is one batch transaction. Nothing is visible to other sessions
// until Commit; Rollback after Commit is a no-op.
type BatchTx interface {
	// SchoolIDs returns the full school name to id snapshot.
	SchoolIDs(ctx context.Context) (map[string]int64, error)
	// InsertDepartment inserts name unless it already exists. inserted is
	// false, with id 0, when the row was already there.
	InsertDepartment(ctx context.Context, name string) (id int64, inserted bool, err error)
	// DepartmentID looks up an existing department by exact name.
	DepartmentID(ctx context.Context, name string) (int64, error)
	// InsertInstructors bulk-inserts rows and returns the number written.
	InsertInstructors(ctx context.Context, rows []entity.Instructor) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
