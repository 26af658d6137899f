package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"smartcare/internal/config"
	"smartcare/internal/core"
	"smartcare/internal/db"
	httpserver "smartcare/internal/http"
	"smartcare/internal/jobs"
	"smartcare/internal/llm"
	"smartcare/internal/ratelimit"
	"smartcare/internal/storage"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database connection
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.DBMaxOpenConns)
	dbConn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(pingCtx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if cfg.SeedDoctors {
		n, err := db.SeedDoctors(ctx, dbConn)
		if err != nil {
			logger.Fatal("failed to seed doctors", zap.Error(err))
		}
		logger.Info("seeded doctors", zap.Int64("inserted", n))
	}

	repo := db.NewRepository(dbConn)
	disk, err := storage.NewDisk(cfg.UploadDir)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}
	if cfg.AIAPIKey == "" {
		logger.Warn("AI_API_KEY not set; symptom analysis will use fallback answers")
	}
	llmClient := llm.NewOpenAIClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)

	notifier := db.NewNotifier(dbConn, cfg.DatabaseURL, cfg.NotifyChannel, logger)
	feed := core.NewReadingFeed(logger)
	events, err := notifier.Listen(ctx)
	if err != nil {
		logger.Fatal("failed to listen for readings", zap.Error(err))
	}
	feedDone := make(chan struct{})
	go func() {
		feed.Run(ctx, events)
		close(feedDone)
	}()

	housekeeping := &jobs.Housekeeping{
		Purger:        repo,
		RetentionDays: cfg.ReadingRetentionDays,
		Logger:        logger,
	}
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; rate limiting fails open until it recovers", zap.Error(err))
		}
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		mem := ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow)
		housekeeping.Sweeper = mem
		limiter = mem
	}
	scheduler, err := housekeeping.Start()
	if err != nil {
		logger.Fatal("failed to start housekeeping", zap.Error(err))
	}

	srv := httpserver.NewServer(httpserver.Services{
		Doctors:   core.NewDoctorService(repo),
		Scheduler: core.NewScheduler(repo),
		Chat:      core.NewChatService(repo, llmClient, logger),
		Uploads:   core.NewUploadService(repo, disk, logger),
		Sensors:   core.NewSensorService(repo, notifier, logger),
		Feed:      feed,
	}, httpserver.Options{
		Production:  cfg.Production(),
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
		AdminSecret: cfg.AdminJWTSecret,
		Limiter:     limiter,
	}, logger)

	// No write timeout: reading streams stay open.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()
	logger.Info("SmartCare server listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))

	<-ctx.Done()
	logger.Info("shutting down")
	// The feed closes every stream once ctx is done.
	<-feedDone
	scheduler.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
