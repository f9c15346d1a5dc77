// API server entry point for plotproof.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/application/classify"
	"github.com/verdantio/plotproof/internal/application/ingest"
	"github.com/verdantio/plotproof/internal/application/overlay"
	"github.com/verdantio/plotproof/internal/application/session"
	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/database/postgres"
	"github.com/verdantio/plotproof/internal/infrastructure/database/postgres/repositories"
	"github.com/verdantio/plotproof/internal/infrastructure/database/redis"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/prometheus"
	"github.com/verdantio/plotproof/internal/infrastructure/oracles"
	httpserver "github.com/verdantio/plotproof/internal/interfaces/http"
	"github.com/verdantio/plotproof/internal/interfaces/http/handlers"
	"github.com/verdantio/plotproof/internal/interfaces/http/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	gin.SetMode(cfg.Server.Mode)
	metrics := prometheus.NewAppMetrics()

	// Redis backs the analysis session store.
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger, redis.WithPrefix(cfg.Redis.KeyPrefix))
	store := session.NewRedisStore(cache, cfg.Session.TTL, logger)

	// PostgreSQL is optional; without it the association endpoints answer 503.
	var assocRepo plot.AssociationRepository
	var dbPinger handlers.Pinger
	if cfg.Database.Host != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		migrator, err := postgres.NewMigrator(cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("migrator: %w", err)
		}
		if err := migrator.Up(); err != nil {
			migrator.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		migrator.Close()

		assocRepo = repositories.NewAssociationRepo(pool, logger)
		dbPinger = pool
	}

	classifier := newClassifier(cfg.Classify, logger, metrics)
	loader := overlay.NewLoader(
		overlay.DefaultChains(cfg.Overlay),
		logger,
		overlay.WithMaxExtent(cfg.Overlay.MaxExtentDegrees),
		overlay.WithObserver(metrics),
	)

	uploadHandler := handlers.NewUploadHandler(
		ingest.NewNormalizer(logger), classifier, store, metrics, logger)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Upload:      uploadHandler,
		Results:     handlers.NewResultsHandler(store, uploadHandler, metrics, logger),
		Association: handlers.NewAssociationHandler(assocRepo, logger),
		Overlay:     handlers.NewOverlayHandler(loader, logger),
		Export:      handlers.NewExportHandler(store, logger),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"redis":    redisClient,
			"postgres": dbPinger,
		}, logger),

		CORS:           middleware.DefaultCORSConfig(),
		Logging:        middleware.DefaultLoggingConfig(),
		MetricsHandler: metrics.Handler(),
		RequestMetrics: metrics,
		Logger:         logger,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	uploadHandler.CancelInFlight()
	return srv.Stop(context.Background())
}

func newClassifier(cfg config.ClassifyConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *classify.Service {
	for name, ep := range map[string]config.OracleEndpoint{
		"gfw": cfg.GFW, "jrc": cfg.JRC, "sbtn": cfg.SBTN,
		"wdpa": cfg.WDPA, "peatland": cfg.Peatland,
	} {
		if ep.BaseURL == "" {
			logger.Warn("oracle endpoint not configured; its dataset will report UNKNOWN",
				logging.String("oracle", name))
		}
	}
	return classify.NewService(
		[]classify.LossOracle{
			oracles.NewGFW(cfg.GFW),
			oracles.NewJRC(cfg.JRC),
			oracles.NewSBTN(cfg.SBTN),
		},
		oracles.NewWDPA(cfg.WDPA),
		oracles.NewPeatland(cfg.Peatland),
		logger,
		classify.WithConcurrency(cfg.Concurrency),
		classify.WithMetrics(metrics),
	)
}
