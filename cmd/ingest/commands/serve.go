package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/adapter/postgres"
	redis_adapter "github.com/user/rating-ingest/internal/adapter/redis"
	"github.com/user/rating-ingest/internal/delivery/http/handler"
	"github.com/user/rating-ingest/internal/delivery/http/router"
	"github.com/user/rating-ingest/internal/usecase"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API and a single ingestion worker draining the Redis queue.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		schoolCatalog := mustLoadCatalog()

		pool := mustConnectPostgres(ctx)
		defer pool.Close()
		mustSeed(ctx, pool, schoolCatalog)
		rdb := mustConnectRedis(ctx)
		defer rdb.Close()

		m := sharedMetrics()
		schools := postgres.NewSchoolRepo(pool)
		queue := redis_adapter.NewQueueRepo(rdb)
		statuses := redis_adapter.NewStatusRepo(rdb)
		manager := usecase.NewSchoolManager(schools, redis_adapter.NewVisitedRepo(rdb), queue, statuses, cfg.DedupTTL, log, m)

		loader := mustOpenPageLoader()
		defer closePageLoader(loader)
		worker := usecase.NewIngestionWorker(queue, schools, statuses, newIngester(pool, loader), cfg.WorkerPollInterval, log, m)

		pingers := map[string]handler.PingFunc{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}
		apiHandler := handler.NewHandler(manager, postgres.NewStatsRepo(pool), pingers, log)
		server := &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      router.New(apiHandler, m, prometheus.DefaultGatherer, log),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		return serveUntilDone(ctx, server, worker.Run)
	},
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// serveUntilDone runs server and work side by side until ctx is done or the
// server fails. Either way work is cancelled and waited for before returning.
func serveUntilDone(ctx context.Context, server httpServer, work func(ctx context.Context) error) error {
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	workerDone := make(chan error, 1)
	go func() { workerDone <- work(workerCtx) }()
	stopWorker := func() {
		cancelWorker()
		if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Ingestion worker stopped with error", zap.Error(err))
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		stopWorker()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopWorker()
	log.Info("Server exiting")
	return nil
}
