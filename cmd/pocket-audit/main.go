package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pocket/internal/amqp"
	"pocket/internal/config"
	"pocket/internal/storage"
	"pocket/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting pocket-audit")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	auditor := worker.New(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Event-driven audits: verify each wallet a mutation touched.
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(ctx, func(ev *amqp.LedgerEvent) error {
			return auditor.HandleEvent(ctx, ev)
		})
	})

	// Periodic full sweep catches drift from any event the consumer missed.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.AuditSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := auditor.SweepAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Audit sweep failed", "error", err)
				}
			}
		}
	})

	logger.Info("Audit worker running", "queue", cfg.AMQPQueue, "sweep_interval", cfg.AuditSweepInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Audit worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Audit worker stopped gracefully")
}
