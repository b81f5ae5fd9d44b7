package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"mybudget/internal/amqp"
	"mybudget/internal/backend"
	"mybudget/internal/cli"
	"mybudget/internal/config"
	"mybudget/internal/log"
	"mybudget/internal/worker"
)

const heartbeatInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"), os.Stdout)
	logger.Info("Starting mybudget-worker")

	cfg := cli.LoadConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// Reads the transactions named by incoming events.
	repo := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export backend", log.FieldError, err)
		os.Exit(1)
	}
	exp, err := backend.NewFactory(logger.WithComponent(log.ComponentSheets).Slog()).CreateExporter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	if exp.Cleanup != nil {
		defer func() {
			if err := exp.Cleanup(); err != nil {
				logger.Warn("Exporter cleanup failed", log.FieldError, err)
			}
		}()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, exp.Exporter, logger.Slog())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue, "backend", backendCfg.Type)
		return amqpClient.ConsumeTransactionCreated(gctx, exportWorker.HandleTransactionCreated)
	})
	g.Go(func() error {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := repo.Ping(gctx); err != nil {
					logger.Warn("Database health check failed", log.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
