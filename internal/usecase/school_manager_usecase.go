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

var (
	ErrUnknownSchool     = errors.New("school id is not in the identity catalog")
	ErrRecentlyIngested  = errors.New("school has been ingested recently and force is false")
	DefaultDeduplication = 48 * time.Hour
)

// SchoolManager defines the interface for submitting schools and checking
// their ingestion status.
type SchoolManager interface {
	Submit(ctx context.Context, schoolID int64, force bool) error
	GetStatus(ctx context.Context, schoolID int64) (*entity.IngestionStatus, error)
}

type schoolManagerUseCase struct {
	schools  repository.SchoolRepository
	visited  repository.VisitedRepository
	queue    repository.QueueRepository
	statuses repository.StatusRepository
	dedupTTL time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewSchoolManager creates a new SchoolManager use case. A zero dedupTTL
// means DefaultDeduplication.
func NewSchoolManager(
	schools repository.SchoolRepository,
	visited repository.VisitedRepository,
	queue repository.QueueRepository,
	statuses repository.StatusRepository,
	dedupTTL time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) SchoolManager {
	if dedupTTL <= 0 {
		dedupTTL = DefaultDeduplication
	}
	return &schoolManagerUseCase{
		schools:  schools,
		visited:  visited,
		queue:    queue,
		statuses: statuses,
		dedupTTL: dedupTTL,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

func (uc *schoolManagerUseCase) Submit(ctx context.Context, schoolID int64, force bool) error {
	if _, err := uc.schools.FindByID(ctx, schoolID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownSchool
		}
		return fmt.Errorf("look up school %d: %w", schoolID, err)
	}

	if force {
		if err := uc.visited.RemoveVisited(ctx, schoolID); err != nil {
			// Not critical, the school is queued anyway.
			uc.logger.Warn("Failed to remove visited key for forced ingestion", zap.Int64("school_id", schoolID), zap.Error(err))
		}
	} else {
		isVisited, err := uc.visited.IsVisited(ctx, schoolID)
		if err != nil {
			return err
		}
		if isVisited {
			return ErrRecentlyIngested
		}
	}

	if err := uc.queue.Push(ctx, schoolID); err != nil {
		return fmt.Errorf("enqueue school %d: %w", schoolID, err)
	}

	if err := uc.visited.MarkVisited(ctx, schoolID, uc.dedupTTL); err != nil {
		// The school is in the queue but may be queued again before it runs.
		uc.logger.Error("Failed to mark school as visited after queueing", zap.Int64("school_id", schoolID), zap.Error(err))
	}

	now := uc.now()
	if err := uc.statuses.Set(ctx, &entity.IngestionStatus{
		SchoolID:      schoolID,
		CurrentStatus: entity.StatusQueued,
		UpdatedAt:     &now,
	}); err != nil {
		uc.logger.Warn("Failed to record queued status", zap.Int64("school_id", schoolID), zap.Error(err))
	}

	if size, err := uc.queue.Size(ctx); err == nil {
		uc.metrics.SchoolsInQueue.Set(float64(size))
	}
	return nil
}

func (uc *schoolManagerUseCase) GetStatus(ctx context.Context, schoolID int64) (*entity.IngestionStatus, error) {
	status, err := uc.statuses.Get(ctx, schoolID)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &entity.IngestionStatus{
		SchoolID:      schoolID,
		CurrentStatus: entity.StatusNotFound,
	}, nil
}
