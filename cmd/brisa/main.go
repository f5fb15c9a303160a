package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"brisa/internal/advisor"
	"brisa/internal/amqp"
	"brisa/internal/config"
	apphttp "brisa/internal/http"
	applog "brisa/internal/log"
	"brisa/internal/rates"
	"brisa/internal/services"
	"brisa/internal/storage"
)

func main() {
	// Load .env for local development, ignore errors in production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rateClient := rates.NewClient(cfg.RateURL, cfg.RateFallback)
	go rateClient.StartRefreshing(ctx, cfg.RateRefreshInterval)

	// AMQP is optional: the ledger is local-first and mirroring just
	// stops when the broker is away.
	var queue services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, mirror sync disabled", "error", err)
		} else {
			defer amqpClient.Close()
			queue = amqpClient
		}
	}

	ledger := services.NewLedgerService(repo, queue)
	clients := services.NewClientService(repo)
	vault := services.NewVaultService(repo)
	dashboard := services.NewDashboardService(repo, rateClient, services.GoalSettings{
		DefaultLabel:  cfg.GoalDefaultLabel,
		DefaultTarget: cfg.GoalDefaultTarget,
		MinTarget:     cfg.GoalMinTarget,
		AvgClientFee:  cfg.AvgClientFee,
	}, cfg.ProjectedExpenseScope)
	tips := advisor.New(cfg.GeminiModel)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, clients, dashboard, vault, rateClient, tips)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting brisa server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
