package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/pkg/utils"
)

const (
	statusPrefix = "ingest:status:"
	statusTTL    = 30 * 24 * time.Hour
)

// StatusRepoImpl keeps the latest ingestion status of each school in a Redis hash.
type StatusRepoImpl struct {
	client *redis.Client
}

// NewStatusRepo creates a new instance of StatusRepoImpl.
func NewStatusRepo(client *redis.Client) *StatusRepoImpl {
	return &StatusRepoImpl{client: client}
}

func (r *StatusRepoImpl) generateKey(schoolID int64) string {
	return statusPrefix + utils.VisitedKey(schoolID)
}

// Set replaces the stored status. The hash expires after statusTTL.
func (r *StatusRepoImpl) Set(ctx context.Context, status *entity.IngestionStatus) error {
	key := r.generateKey(status.SchoolID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, encodeStatus(status))
		pipe.Expire(ctx, key, statusTTL)
		return nil
	})
	return err
}

// Get returns repository.ErrNotFound when nothing is stored for the school.
func (r *StatusRepoImpl) Get(ctx context.Context, schoolID int64) (*entity.IngestionStatus, error) {
	fields, err := r.client.HGetAll(ctx, r.generateKey(schoolID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}
	return decodeStatus(schoolID, fields)
}

func encodeStatus(s *entity.IngestionStatus) map[string]any {
	fields := map[string]any{
		"status":   s.CurrentStatus,
		"inserted": s.Inserted,
		"skipped":  s.Skipped,
	}
	if s.UpdatedAt != nil {
		fields["updated_at"] = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if s.FailureReason != "" {
		fields["failure_reason"] = s.FailureReason
	}
	return fields
}

func decodeStatus(schoolID int64, fields map[string]string) (*entity.IngestionStatus, error) {
	s := &entity.IngestionStatus{
		SchoolID:      schoolID,
		CurrentStatus: fields["status"],
		FailureReason: fields["failure_reason"],
	}
	if v, ok := fields["updated_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("malformed updated_at %q: %w", v, err)
		}
		s.UpdatedAt = &t
	}
	if v, ok := fields["inserted"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed inserted %q: %w", v, err)
		}
		s.Inserted = n
	}
	if v, ok := fields["skipped"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("malformed skipped %q: %w", v, err)
		}
		s.Skipped = n
	}
	return s, nil
}
