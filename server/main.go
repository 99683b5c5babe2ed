package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/product-copy-generator/internal/config"
	"github.com/phambaophuc/product-copy-generator/internal/database"
	"github.com/phambaophuc/product-copy-generator/internal/http/handlers"
	"github.com/phambaophuc/product-copy-generator/internal/http/routes"
	"github.com/phambaophuc/product-copy-generator/internal/repository"
	"github.com/phambaophuc/product-copy-generator/internal/services/gemini"
	"github.com/phambaophuc/product-copy-generator/internal/services/generation"
	"github.com/phambaophuc/product-copy-generator/internal/services/processor"
	"github.com/phambaophuc/product-copy-generator/internal/services/queue"
	"github.com/phambaophuc/product-copy-generator/internal/services/storage"
	"github.com/phambaophuc/product-copy-generator/internal/services/webhook"
	"github.com/phambaophuc/product-copy-generator/internal/tasks"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if !cfg.GeneratorReady() {
		logger.Warn("Generation credentials missing, generation endpoints will answer 503",
			zap.String("mode", cfg.Gemini.Mode))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize services
	imageProcessor := processor.NewImageProcessor(cfg.Storage.MaxFileSize, cfg.Generation.MaxImageDimension)

	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	healthReporters := []handlers.HealthReporter{storageService}

	var runs repository.RunRepository
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Warn("Run log disabled", zap.Error(err))
	} else {
		defer database.Close(db)
		runs = repository.NewRunRepository(db)
		healthReporters = append(healthReporters, dbHealth(db))
	}

	generator, closer, err := newGenerator(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize generator", zap.Error(err))
	}
	if closer != nil {
		defer closer.Close()
	}

	orchestratorOpts := generation.Options{
		Cache:  storageService,
		Logger: logger,
	}
	if runs != nil {
		orchestratorOpts.Recorder = runs
	}
	orchestrator := generation.NewOrchestrator(generator, orchestratorOpts)

	handlerOpts := handlers.Options{
		Config:    cfg,
		Generator: orchestrator,
		Processor: imageProcessor,
		Archive:   storageService,
		Jobs:      storageService,
		Webhooks:  webhook.NewSender(cfg.Webhook.Timeout, logger),
		Runs:      runs,
		Stats: map[string]handlers.StatsFunc{
			"cache": func(ctx context.Context) (interface{}, error) {
				return storageService.GetCacheStats(ctx)
			},
		},
		Logger: logger,
	}

	queueService, err := queue.NewQueueService(cfg.RabbitMQ, storageService, storageService, orchestrator, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without queue service for basic functionality
	} else {
		defer queueService.Close()
		handlerOpts.Queue = queueService
		healthReporters = append(healthReporters, handlers.HealthFunc(func(context.Context) map[string]string {
			return map[string]string{"rabbitmq": queueService.HealthCheck()}
		}))
		handlerOpts.Stats["queue"] = func(context.Context) (interface{}, error) {
			return queueService.GetQueueStats()
		}

		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(ctx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}
	handlerOpts.Health = healthReporters

	if runs != nil {
		retention, err := tasks.NewRetentionTask(runs, storageService, cfg.Retention.Schedule, cfg.Retention.MaxAge, logger)
		if err != nil {
			logger.Fatal("Failed to initialize retention task", zap.Error(err))
		}
		retention.Start()
		defer retention.Stop()
	}

	router := routes.NewRouter(handlers.NewHandler(handlerOpts), cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("generator", cfg.Gemini.Mode),
			zap.String("model", orchestrator.Model()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop workers first so in-flight jobs are requeued.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newGenerator builds the transport selected by GEMINI_MODE. The closer is
// nil for transports without resources to release.
func newGenerator(ctx context.Context, cfg *config.Config) (generation.Generator, io.Closer, error) {
	opts := gemini.Options{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		Timeout:         cfg.Gemini.Timeout,
		Temperature:     cfg.Gemini.Temperature,
		TopK:            cfg.Gemini.TopK,
		TopP:            cfg.Gemini.TopP,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}

	switch cfg.Gemini.Mode {
	case config.GeminiModeRelay:
		return gemini.NewRelayClient(cfg.Gemini.RelayURL, cfg.Gemini.RelayToken, cfg.Gemini.Timeout), nil, nil
	case config.GeminiModeSDK:
		if !cfg.GeneratorReady() {
			// Without a key the endpoints answer 503 before reaching the generator.
			return gemini.New(opts), nil, nil
		}
		client, err := gemini.NewSDKClient(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return gemini.New(opts), nil, nil
	}
}

func dbHealth(db *gorm.DB) handlers.HealthFunc {
	return func(context.Context) map[string]string {
		return map[string]string{"database": database.HealthCheck(db)}
	}
}
