package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/pkg/metrics"
)

var ErrLoadFailed = errors.New("batch load failed")

// BatchLoader commits one extracted table per call. Rows whose school cannot
// be resolved are skipped and reported; any storage error rolls the whole
// batch back.
type BatchLoader struct {
	store   repository.IngestStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewBatchLoader(store repository.IngestStore, logger *zap.Logger, m *metrics.Metrics) *BatchLoader {
	return &BatchLoader{store: store, logger: logger, metrics: m}
}

// Load resolves schools and departments for records and bulk-inserts every
// resolvable row in one transaction. Instructor rows are appended, never
// upserted, so loading the same table twice stores it twice.
func (l *BatchLoader) Load(ctx context.Context, records []entity.InstructorRecord) (*entity.LoadResult, error) {
	tx, err := l.store.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ErrLoadFailed, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			l.logger.Warn("Rollback after batch load failed", zap.Error(err))
		}
	}()

	schoolIDs, err := tx.SchoolIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load school identities: %w", ErrLoadFailed, err)
	}
	resolver := NewIdentityResolver(schoolIDs)

	result := &entity.LoadResult{}
	departments := &departmentCache{tx: tx, ids: make(map[string]int64)}
	pending := make([]entity.Instructor, 0, len(records))

	for i, rec := range records {
		name := entity.StringValue(rec.Name)
		school := entity.StringValue(rec.School)

		if name == "" {
			result.Skipped = append(result.Skipped, l.skip(i, rec, entity.SkipMissingName))
			continue
		}
		schoolID, ok := resolver.Resolve(school)
		if !ok {
			l.logger.Warn("Skipping instructor, school not in catalog",
				zap.String("instructor", name), zap.String("school", school))
			result.Skipped = append(result.Skipped, l.skip(i, rec, entity.SkipUnknownSchool))
			continue
		}

		var departmentID *int64
		if dept := entity.StringValue(rec.Department); dept != "" {
			id, created, err := departments.resolve(ctx, dept)
			if err != nil {
				return nil, fmt.Errorf("%w: department %q: %w", ErrLoadFailed, dept, err)
			}
			if created {
				result.DepartmentsCreated++
			}
			departmentID = &id
		}

		pending = append(pending, entity.Instructor{
			Name:          name,
			DepartmentID:  departmentID,
			SchoolID:      schoolID,
			Quality:       rec.Quality,
			TotalRatings:  rec.TotalRatings,
			RetakePercent: rec.RetakePercent,
			Difficulty:    rec.Difficulty,
		})
	}

	if len(pending) > 0 {
		n, err := tx.InsertInstructors(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("%w: insert %d instructors: %w", ErrLoadFailed, len(pending), err)
		}
		result.Inserted = n
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ErrLoadFailed, err)
	}

	l.metrics.InstructorsLoaded.Add(float64(result.Inserted))
	l.metrics.DepartmentsCreated.Add(float64(result.DepartmentsCreated))
	l.logger.Info("Batch committed",
		zap.Int("records", len(records)),
		zap.Int64("inserted", result.Inserted),
		zap.Int("departments_created", result.DepartmentsCreated),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (l *BatchLoader) skip(i int, rec entity.InstructorRecord, reason entity.SkipReason) entity.SkippedRecord {
	l.metrics.RowsSkipped.WithLabelValues(string(reason)).Inc()
	return entity.SkippedRecord{
		Index:  i,
		Name:   entity.StringValue(rec.Name),
		School: entity.StringValue(rec.School),
		Reason: reason,
	}
}

// departmentCache costs at most one insert attempt and one lookup per
// distinct name for the lifetime of a batch.
type departmentCache struct {
	tx  repository.BatchTx
	ids map[string]int64
}

func (c *departmentCache) resolve(ctx context.Context, name string) (id int64, created bool, err error) {
	if id, ok := c.ids[name]; ok {
		return id, false, nil
	}
	id, created, err = c.tx.InsertDepartment(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if !created {
		id, err = c.tx.DepartmentID(ctx, name)
		if err != nil {
			return 0, false, err
		}
	}
	c.ids[name] = id
	return id, created, nil
}
