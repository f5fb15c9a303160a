package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"brisa/internal/amqp"
	"brisa/internal/config"
	applog "brisa/internal/log"
	"brisa/internal/mirror"
	"brisa/internal/storage"
	"brisa/internal/worker"
)

func main() {
	// Load .env for local development, ignore errors in production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting brisa-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.MirrorBaseURL == "" {
		logger.Error("MIRROR_BASE_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	remote := mirror.NewHTTPMirror(cfg.MirrorBaseURL, cfg.MirrorAPIKey)
	syncWorker := worker.NewSyncWorker(repo, remote)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := amqpClient.ConsumeRecordSync(ctx, func(msg *amqp.RecordSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	// Periodic sweep so records whose broker message was lost still
	// reach the mirror eventually.
	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		if err := syncWorker.Reconcile(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Startup reconcile failed", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.Reconcile(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Periodic reconcile failed", "error", err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give the consumer a moment to ack in-flight deliveries.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
