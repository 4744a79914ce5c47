package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "talent-pipeline/docs" // Swagger docs
	"talent-pipeline/internal/access"
	"talent-pipeline/internal/aiclient"
	"talent-pipeline/internal/api"
	"talent-pipeline/internal/blob"
	"talent-pipeline/internal/config"
	"talent-pipeline/internal/cv"
	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/position"
	"talent-pipeline/internal/progress"
	"talent-pipeline/internal/storage"
)

// @title Talent Pipeline API
// @version 1.0
// @description Recruitment backend: projects, positions, job descriptions and CV ingestion with AI matching
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /api
// @schemes http https

// memoryDSN selects the in-process document store, for local runs.
const memoryDSN = "memory"

const reapInterval = 5 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fallback, _ := logger.New(false, false)
		fallback.Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.String("kind", errors.Kind(err)), zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Background work outlives requests; it stops with the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()
	store := storage.NewStore(backend)

	blobs, err := blob.New(ctx, blob.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		Secure:    cfg.MinioSecure,
		PublicURL: cfg.MinioPublicURL,
		Timeout:   cfg.StorageTimeout,
	}, log)
	if err != nil {
		return err
	}

	cache, err := openProgress(ctx, cfg)
	if err != nil {
		return err
	}
	progress.StartReaper(ctx, cache, reapInterval, log)

	ai := aiclient.New(aiclient.Config{
		ProcessingURL:           cfg.ProcessingAPIURL,
		MatchingURL:             cfg.MatchingAPIURL,
		ProcessingTimeoutPerDoc: cfg.ProcessingTimeoutPerDoc,
		MatchingTimeout:         cfg.MatchingTimeout,
		DefaultModel:            cfg.LLMName,
	}, log)

	positions := position.NewService(store, ai, log)

	runner := pipeline.NewRunner(cfg.Workers, cfg.QueueSize, log)
	runner.Start(ctx)

	p := pipeline.New(pipeline.Deps{
		Store:     store,
		Positions: positions,
		Progress:  cache,
		Blobs:     blobs,
		Extractor: cv.NewParser(cfg.UploadsDir, cfg.Extensions()),
		Processor: ai,
		Matcher:   ai,
		Runner:    runner,
		Log:       log,
	})

	apiSrv := api.NewAPI(api.Deps{
		Pipeline:     p,
		Positions:    positions,
		Access:       access.NewChecker(store),
		DefaultModel: cfg.LLMName,
		Log:          log,
	})
	router := api.NewRouter(apiSrv, "/swagger/doc.json")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second, // multipart uploads
		WriteTimeout: 15 * time.Minute, // JD updates wait on the processing service
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", zap.Error(err))
		}
		runner.Stop()
		close(idleConnsClosed)
	}()

	log.Info("API server listening", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "listen")
	}

	<-idleConnsClosed
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Backend, func(), error) {
	if cfg.DatabaseURL == memoryDSN {
		log.Warn("using the in-memory document store, data is lost on restart")
		return storage.NewMemory(), func() {}, nil
	}

	db, err := storage.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("database connected")
	return db, db.Close, nil
}

func openProgress(ctx context.Context, cfg *config.Config) (progress.Cache, error) {
	if cfg.ProgressBackend != "redis" {
		return progress.NewMemoryCache(cfg.ProgressTTL), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "connect to redis")
	}
	return progress.NewRedisCache(rdb, cfg.ProgressTTL), nil
}
