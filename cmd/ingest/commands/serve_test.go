package commands

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/pkg/config"
)

type fakeServer struct {
	listenErr error
	stopped   chan struct{}
	shutdowns int
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{listenErr: listenErr, stopped: make(chan struct{})}
}

func (s *fakeServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.stopped
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.shutdowns++
	close(s.stopped)
	return nil
}

// blockingWorker runs until its context is cancelled and records that it
// returned.
type blockingWorker struct {
	started  chan struct{}
	returned chan struct{}
}

func newBlockingWorker() *blockingWorker {
	return &blockingWorker{started: make(chan struct{}), returned: make(chan struct{})}
}

func (w *blockingWorker) Run(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	close(w.returned)
	return ctx.Err()
}

func (w *blockingWorker) hasReturned() bool {
	select {
	case <-w.returned:
		return true
	default:
		return false
	}
}

func setupServeTest(t *testing.T) {
	t.Helper()
	prevCfg, prevLog := cfg, log
	cfg = &config.Config{ServerPort: "8080"}
	log = zap.NewNop()
	t.Cleanup(func() { cfg, log = prevCfg, prevLog })
}

func TestServeUntilDoneStopsWorkerWhenListenFails(t *testing.T) {
	setupServeTest(t)
	listenErr := errors.New("listen tcp :8080: bind: address already in use")
	server := newFakeServer(listenErr)
	worker := newBlockingWorker()

	err := serveUntilDone(context.Background(), server, worker.Run)

	require.ErrorIs(t, err, listenErr)
	require.True(t, worker.hasReturned())
	require.Zero(t, server.shutdowns)
}

func TestServeUntilDoneShutsDownOnCancel(t *testing.T) {
	setupServeTest(t)
	server := newFakeServer(nil)
	worker := newBlockingWorker()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, server, worker.Run) }()
	<-worker.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntilDone did not return after cancel")
	}
	require.True(t, worker.hasReturned())
	require.Equal(t, 1, server.shutdowns)
}
