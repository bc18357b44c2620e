package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/pkg/metrics"
)

const defaultWorkerPollInterval = 2 * time.Second

// IngestionWorker drains the school queue strictly one school at a time. It
// is the only user of the browser, so there must be exactly one per process.
type IngestionWorker struct {
	queue        repository.QueueRepository
	schools      repository.SchoolRepository
	statuses     repository.StatusRepository
	ingester     Ingester
	pollInterval time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewIngestionWorker(
	queue repository.QueueRepository,
	schools repository.SchoolRepository,
	statuses repository.StatusRepository,
	ingester Ingester,
	pollInterval time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *IngestionWorker {
	if pollInterval <= 0 {
		pollInterval = defaultWorkerPollInterval
	}
	return &IngestionWorker{
		queue:        queue,
		schools:      schools,
		statuses:     statuses,
		ingester:     ingester,
		pollInterval: pollInterval,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// Run processes the queue until ctx is done. An empty queue is polled again
// after the poll interval.
func (w *IngestionWorker) Run(ctx context.Context) error {
	w.logger.Info("Ingestion worker started", zap.Duration("poll_interval", w.pollInterval))
	for {
		processed, err := w.ProcessNext(ctx)
		if err != nil {
			w.logger.Error("Failed to process queue item", zap.Error(err))
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			w.logger.Info("Ingestion worker stopped")
			return nil
		case <-time.After(w.pollInterval):
		}
	}
}

// ProcessNext pops a single school from the queue and ingests it. processed
// is false when the queue was empty. An ingestion failure is recorded in the
// school's status and is not returned; only queue and status store errors are.
func (w *IngestionWorker) ProcessNext(ctx context.Context) (processed bool, err error) {
	schoolID, ok, err := w.queue.Pop(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to pop school from queue: %w", err)
	}
	if !ok {
		return false, nil
	}
	if size, err := w.queue.Size(ctx); err == nil {
		w.metrics.SchoolsInQueue.Set(float64(size))
	}

	school, err := w.schools.FindByID(ctx, schoolID)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, repository.ErrNotFound) {
			reason = ErrUnknownSchool.Error()
		}
		return true, w.setStatus(ctx, &entity.IngestionStatus{
			SchoolID:      schoolID,
			CurrentStatus: entity.StatusFailed,
			FailureReason: reason,
		})
	}

	w.logger.Info("Processing school from queue", zap.Int64("school_id", school.ID), zap.String("school", school.Name))
	if err := w.setStatus(ctx, &entity.IngestionStatus{SchoolID: school.ID, CurrentStatus: entity.StatusRunning}); err != nil {
		w.logger.Warn("Failed to record running status", zap.Int64("school_id", school.ID), zap.Error(err))
	}

	report, ingestErr := w.ingester.Ingest(ctx, *school)
	if ingestErr != nil {
		return true, w.setStatus(ctx, &entity.IngestionStatus{
			SchoolID:      school.ID,
			CurrentStatus: entity.StatusFailed,
			FailureReason: ingestErr.Error(),
		})
	}

	status := &entity.IngestionStatus{SchoolID: school.ID, CurrentStatus: entity.StatusCompleted}
	if report.Load != nil {
		status.Inserted = report.Load.Inserted
		status.Skipped = len(report.Load.Skipped)
	}
	return true, w.setStatus(ctx, status)
}

func (w *IngestionWorker) setStatus(ctx context.Context, status *entity.IngestionStatus) error {
	now := w.now()
	status.UpdatedAt = &now
	if err := w.statuses.Set(ctx, status); err != nil {
		return fmt.Errorf("failed to save status %q for school %d: %w", status.CurrentStatus, status.SchoolID, err)
	}
	return nil
}
