package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rinehimer/jxtl/internal/config"
	"github.com/rinehimer/jxtl/internal/eval/template"
	"github.com/rinehimer/jxtl/internal/format"
	"github.com/rinehimer/jxtl/internal/logging"
	"github.com/rinehimer/jxtl/internal/render"
	"github.com/rinehimer/jxtl/internal/store"
	"github.com/rinehimer/jxtl/internal/worker"
	"go.uber.org/zap"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting render worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	engine := template.NewEngine(engineOptions(cfg)...)
	if err := engine.Resize(cfg.TemplateCacheSize); err != nil {
		logger.Fatal("failed to size template cache", zap.Error(err))
	}
	renderer := render.NewRenderer(engine, logger, rendererOptions(cfg, redisClient, logger)...)

	// Initialize worker
	w := worker.NewWorker(cfg, redisClient, renderer, logger)
	if err := w.Start(); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	// Start health server
	checks := []worker.Check{worker.RedisCheck(redisClient)}
	if cfg.TemplateDir != "" {
		checks = append(checks, worker.TemplateDirCheck(cfg.TemplateDir))
	}
	healthServer := worker.NewHealthServer(cfg.HealthPort, logger, checks...)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("render worker running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping worker")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	if err := w.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis connection", zap.Error(err))
	}

	logger.Info("render worker stopped", zap.Int("cached_templates", engine.Len()))
}

func engineOptions(cfg *config.Config) []template.Option {
	opts := []template.Option{template.WithDelims(cfg.LeftDelim, cfg.RightDelim)}
	if cfg.TrimBlockNewlines {
		opts = append(opts, template.WithTrimBlockNewlines())
	}
	return opts
}

// rendererOptions reads named templates from TEMPLATE_DIR when set and from
// redis otherwise.
func rendererOptions(cfg *config.Config, client *redis.Client, logger *zap.Logger) []render.Option {
	opts := []render.Option{
		render.WithFormatter(format.New()),
		render.WithMaxDocumentSize(int(cfg.MaxDocumentSize)),
		render.WithMaxTemplateSize(int(cfg.MaxTemplateSize)),
	}
	if cfg.XMLSkipRoot {
		opts = append(opts, render.WithSkipRoot())
	}

	if cfg.TemplateDir != "" {
		logger.Info("loading templates from directory", zap.String("dir", cfg.TemplateDir))
		return append(opts, render.WithLoader(render.NewDirLoader(cfg.TemplateDir)))
	}

	logger.Info("loading templates from redis", zap.String("prefix", cfg.TemplateKeyPrefix))
	templates := store.NewTemplateStore(client, cfg.TemplateKeyPrefix, cfg.TemplateTTL, logger)
	return append(opts, render.WithLoader(templates))
}
