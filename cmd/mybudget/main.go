package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"mybudget/internal/amqp"
	"mybudget/internal/cache"
	"mybudget/internal/cli"
	"mybudget/internal/config"
	"mybudget/internal/core"
	apphttp "mybudget/internal/http"
	"mybudget/internal/log"
	"mybudget/internal/services"
)

const (
	statsCacheSize    = 64
	janitorInterval   = time.Minute
	shutdownTimeout   = 30 * time.Second
	maxHeaderBytes    = 1 << 16 // 64KB
	requestsPerMinute = 60
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp, os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadConfig(logger, (*config.Config).Validate)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)
	defer repo.Close()

	statsCache := cache.NewLRUCache[core.PeriodStats](statsCacheSize, cfg.StatsCacheTTL)
	janitor := cache.NewJanitor(logger.WithComponent(log.ComponentStats).Slog())
	janitor.Register(statsCache)
	stats := services.NewStatsService(repo, statsCache)

	// Left as an untyped nil when AMQP is off so the ledger skips publishing.
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export events", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:            services.NewLedgerService(repo, publisher, stats),
		Stats:             stats,
		Budgets:           services.NewBudgetService(repo, repo, repo),
		Ready:             repo.Ping,
		Logger:            logger,
		RequestsPerMinute: requestsPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = maxHeaderBytes

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting mybudget server", "port", cfg.Port, "db_path", cfg.SQLiteDBPath, "amqp_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		janitor.Run(gctx, janitorInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
