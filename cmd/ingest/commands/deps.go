package commands

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/adapter/chromedp_browser"
	"github.com/user/rating-ingest/internal/adapter/parquet_snapshot"
	"github.com/user/rating-ingest/internal/adapter/postgres"
	"github.com/user/rating-ingest/internal/catalog"
	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/extractor"
	"github.com/user/rating-ingest/internal/usecase"
	"github.com/user/rating-ingest/pkg/metrics"
)

var appMetrics *metrics.Metrics

// sharedMetrics registers the collectors once per process.
func sharedMetrics() *metrics.Metrics {
	if appMetrics == nil {
		appMetrics = metrics.New(prometheus.DefaultRegisterer)
	}
	return appMetrics
}

func mustLoadCatalog() entity.Catalog {
	c, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatal("Could not load school catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}
	log.Info("School catalog loaded", zap.Int("schools", len(c)))
	return c
}

func mustConnectPostgres(ctx context.Context) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("Unable to connect to database", zap.Error(err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Fatal("Unable to reach database", zap.Error(err))
	}
	log.Info("PostgreSQL connection pool established")
	return pool
}

func mustConnectRedis(ctx context.Context) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Unable to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connection established")
	return rdb
}

// mustOpenPageLoader starts the browser. The caller must Close the loader.
func mustOpenPageLoader() *usecase.PageLoader {
	browser, err := chromedp_browser.NewChromedpBrowser(chromedp_browser.Options{
		Headless:        cfg.Headless,
		UserAgent:       cfg.UserAgent,
		NavigateTimeout: cfg.PageLoadTimeout,
	}, log)
	if err != nil {
		log.Fatal("Unable to start browser", zap.Error(err))
	}
	return usecase.NewPageLoader(browser, usecase.PageLoaderConfig{
		PageBatchSize:  cfg.PageBatchSize,
		HeaderTimeout:  cfg.HeaderTimeout,
		ButtonTimeout:  cfg.ButtonTimeout,
		ContentTimeout: cfg.ContentTimeout,
		PollInterval:   cfg.PollInterval,
	}, log, sharedMetrics())
}

func closePageLoader(l *usecase.PageLoader) {
	if err := l.Close(); err != nil {
		log.Warn("Browser did not shut down cleanly", zap.Error(err))
	}
}

func newIngester(pool *pgxpool.Pool, loader *usecase.PageLoader) usecase.Ingester {
	m := sharedMetrics()
	return usecase.NewIngestionUseCase(
		cfg.ListingBaseURL,
		loader,
		extractor.New(extractor.DefaultSignatures()),
		usecase.NewBatchLoader(postgres.NewIngestStore(pool), log, m),
		parquet_snapshot.NewSnapshotRepo(cfg.SnapshotDir),
		log,
		m,
	)
}
