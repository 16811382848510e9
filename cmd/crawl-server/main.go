package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/furixon/dc-scraper/internal/api"
	"github.com/furixon/dc-scraper/internal/config"
	"github.com/furixon/dc-scraper/internal/database"
	"github.com/furixon/dc-scraper/internal/events"
	"github.com/furixon/dc-scraper/internal/jobs"
	"github.com/furixon/dc-scraper/internal/scraper"
	"github.com/furixon/dc-scraper/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store jobs.ResultStore
	switch cfg.Storage.Backend {
	case "file":
		fileStore, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			logger.Error("failed to open file store", "error", err, "dir", cfg.Storage.Dir)
			os.Exit(1)
		}
		store = fileStore
	default:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		store = db
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream, logger)
	discovery := scraper.NewDiscovery(cfg.Crawler.SearchBaseURL, cfg.Crawler.MinReviewCount, cfg.Browser.SearchTimeout, logger)
	workerExec := jobs.NewWorkerExec(cfg.Crawler.WorkerBin, logger)
	pool := jobs.NewPool(workerExec.Run, cfg.Crawler.BatchCooldown, logger)
	pipeline := jobs.NewPipeline(cfg.Crawler, jobs.NewRunGuard(), discovery, pool, store, publisher, logger)

	handlers := api.NewHandlers(pipeline, logger)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
