package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
)

// ReplayResult is the outcome of loading one snapshot file.
type ReplayResult struct {
	Path string
	Load *entity.LoadResult
	Err  error
}

// Replayer loads previously written snapshots without touching the browser.
type Replayer struct {
	snapshots repository.SnapshotRepository
	loader    Loader
	logger    *zap.Logger
}

func NewReplayer(snapshots repository.SnapshotRepository, loader Loader, logger *zap.Logger) *Replayer {
	return &Replayer{snapshots: snapshots, loader: loader, logger: logger}
}

// ReplayDir loads every snapshot in dir as its own batch. A file that fails
// to read or load is reported and the rest continue. Only failing to list dir
// is returned as an error.
func (r *Replayer) ReplayDir(ctx context.Context, dir string) ([]ReplayResult, error) {
	paths, err := r.snapshots.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots in %s: %w", dir, err)
	}

	results := make([]ReplayResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := ReplayResult{Path: path}
		res.Load, res.Err = r.ReplayFile(ctx, path)
		if res.Err != nil {
			r.logger.Error("Failed to replay snapshot", zap.String("path", path), zap.Error(res.Err))
		}
		results = append(results, res)
	}
	r.logger.Info("Replay finished", zap.String("dir", dir), zap.Int("files", len(results)))
	return results, nil
}

// ReplayFile loads a single snapshot file.
func (r *Replayer) ReplayFile(ctx context.Context, path string) (*entity.LoadResult, error) {
	records, err := r.snapshots.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return r.loader.Load(ctx, records)
}
