package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/usecase"
)

type managerFixture struct {
	schools  *memSchools
	visited  *memVisited
	queue    *memQueue
	statuses *memStatus
	manager  usecase.SchoolManager
}

func newManagerFixture() *managerFixture {
	f := &managerFixture{
		schools:  &memSchools{schools: map[int64]string{42: "Acme University"}},
		visited:  newMemVisited(),
		queue:    &memQueue{},
		statuses: newMemStatus(),
	}
	f.manager = usecase.NewSchoolManager(f.schools, f.visited, f.queue, f.statuses, time.Hour, zap.NewNop(), newMetrics())
	return f
}

func TestSubmitQueuesSchool(t *testing.T) {
	f := newManagerFixture()

	require.NoError(t, f.manager.Submit(context.Background(), 42, false))

	require.Equal(t, []int64{42}, f.queue.items)
	require.Equal(t, time.Hour, f.visited.marks[42])
	status, err := f.manager.GetStatus(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, status.CurrentStatus)
	require.NotNil(t, status.UpdatedAt)
}

func TestSubmitUnknownSchool(t *testing.T) {
	f := newManagerFixture()

	err := f.manager.Submit(context.Background(), 99, false)

	require.ErrorIs(t, err, usecase.ErrUnknownSchool)
	require.Empty(t, f.queue.items)
}

func TestSubmitRecentlyIngested(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Submit(context.Background(), 42, false))

	err := f.manager.Submit(context.Background(), 42, false)

	require.ErrorIs(t, err, usecase.ErrRecentlyIngested)
	require.Len(t, f.queue.items, 1)
}

func TestSubmitForceBypassesDeduplication(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Submit(context.Background(), 42, false))

	require.NoError(t, f.manager.Submit(context.Background(), 42, true))

	require.Equal(t, []int64{42, 42}, f.queue.items)
	require.Equal(t, []int64{42}, f.visited.removed)
}

func TestSubmitQueueFailure(t *testing.T) {
	f := newManagerFixture()
	f.queue.err = errors.New("redis down")

	err := f.manager.Submit(context.Background(), 42, false)

	require.ErrorIs(t, err, f.queue.err)
	require.Empty(t, f.visited.marks)
}

func TestGetStatusNotFound(t *testing.T) {
	f := newManagerFixture()

	status, err := f.manager.GetStatus(context.Background(), 42)

	require.NoError(t, err)
	require.Equal(t, entity.StatusNotFound, status.CurrentStatus)
}
