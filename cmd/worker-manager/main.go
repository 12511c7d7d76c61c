package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplace-compat/internal/common/camunda"
	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/common/database"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/observability"
	"marketplace-compat/internal/compatibility"
	"marketplace-compat/internal/marketplace"
	"marketplace-compat/internal/server"

	cc "marketplace-compat/internal/workers/compatibility/calculate-compatibility"
	rl "marketplace-compat/internal/workers/compatibility/rank-listings"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting marketplace compatibility service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Scoring engine ---
	engine := compatibility.NewEngine(cfg.Compatibility.EngineConfig())
	zapLog.Info("Compatibility engine ready",
		zap.Int("categories", len(compatibility.Categories())),
		zap.Bool("parallelScorers", engine.Config().Parallel),
	)

	var checks []server.ReadinessCheck
	opts := marketplace.ServiceOptions{
		Engine:          engine,
		Observability:   obs,
		Logger:          log,
		RankingMaxItems: cfg.Compatibility.RankingMaxItems,
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")

		checks = append(checks, server.ReadinessCheck{Name: "postgres", Check: pg.Ping})
		opts.Listings = marketplace.NewListingStore(pg.DB, log)
	} else {
		zapLog.Warn("PostgreSQL not configured, requests must carry profiles and listings inline")
	}

	// --- Init Redis with retry ---
	var cache goredis.Cmdable
	if cfg.Database.Redis.Address != "" {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		cache = redis.Client
		checks = append(checks, server.ReadinessCheck{Name: "redis", Check: redis.Ping})
		opts.Cache = marketplace.NewResultCache(redis.Client, config.GetDuration(cfg.Compatibility.ResultCacheTTL), log)
	} else {
		zapLog.Warn("Redis not configured, results and profiles are not cached")
	}

	if pg != nil {
		opts.Profiles = marketplace.NewProfileStore(pg.DB, cache, config.GetDuration(cfg.Compatibility.ProfileCacheTTL), log)
	}

	// --- Init Elasticsearch with retry ---
	if cfg.Database.Elasticsearch.GetURL() != "" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		index := cfg.Database.Elasticsearch.ListingsIndex
		if err := esClient.EnsureIndex(ctx, index); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err), zap.String("index", index))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index))

		checks = append(checks, server.ReadinessCheck{Name: "elasticsearch", Check: esClient.Ping})
		opts.Search = marketplace.NewListingSearch(esClient.Client, index, log)
	} else {
		zapLog.Warn("Elasticsearch not configured, ranking needs explicit candidates")
	}

	service := marketplace.NewService(opts)

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	checks = append(checks, server.ReadinessCheck{Name: "zeebe", Check: zeebe.HealthCheck})

	// --- Register workers ---
	var workers []*camunda.CamundaWorker

	if ccCfg := cc.LoadConfig(cfg); ccCfg.Enabled {
		handler := cc.NewHandler(ccCfg, service, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), cc.TaskType,
			config.GetWorkerConfig(cfg, cc.TaskType), handler, obs, log))
	}

	if rlCfg := rl.LoadConfig(cfg); rlCfg.Enabled {
		handler := rl.NewHandler(rlCfg, service, log)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), rl.TaskType,
			config.GetWorkerConfig(cfg, rl.TaskType), handler, obs, log))
	}

	for _, w := range workers {
		w.Start()
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- HTTP API ---
	router := server.NewRouter(server.Deps{
		Service: service,
		Logger:  log,
		Checks:  checks,
	})
	srv := server.New(cfg.Server, router, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		zapLog.Info("Shutdown signal received", zap.String("signal", s.String()))
	case err := <-serverErr:
		if err != nil {
			zapLog.Error("http server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout)+time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http server shutdown incomplete", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	zapLog.Info("Shutdown complete")
}
