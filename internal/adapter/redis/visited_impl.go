package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/rating-ingest/pkg/utils"
)

const visitedSchoolPrefix = "ingest:visited:"

// VisitedRepoImpl provides a concrete implementation for the VisitedRepository interface using Redis.
type VisitedRepoImpl struct {
	client *redis.Client
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo(client *redis.Client) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client}
}

func (r *VisitedRepoImpl) generateKey(schoolID int64) string {
	return visitedSchoolPrefix + utils.VisitedKey(schoolID)
}

// MarkVisited sets the school's key with an expiry. SETEX is atomic.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, schoolID int64, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.generateKey(schoolID), "1", expiry).Err()
}

// IsVisited checks for the existence of the school's key.
func (r *VisitedRepoImpl) IsVisited(ctx context.Context, schoolID int64) (bool, error) {
	val, err := r.client.Exists(ctx, r.generateKey(schoolID)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// RemoveVisited deletes the school's key, used for forced ingestion.
func (r *VisitedRepoImpl) RemoveVisited(ctx context.Context, schoolID int64) error {
	return r.client.Del(ctx, r.generateKey(schoolID)).Err()
}
