package main

import (
	"context"
	"os"
	"time"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/log"
	"conti/internal/services"
	"conti/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting recurring-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger, nil)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Generated transactions go through the ledger, so they publish events
	// like any other write when a broker is configured.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	ledger := services.NewLedgerService(repo, publisher, logger)
	processor := services.NewRecurringProcessor(repo, ledger, logger)

	process := func(ctx context.Context) error {
		count, err := processor.ProcessDue(ctx, time.Now())
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Recurring processing complete",
			log.FieldOperation, log.OpGenerate,
			"transactions_created", count)
		return nil
	}

	if cfg.RecurringRunOnce {
		if err := process(context.Background()); err != nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
			os.Exit(1)
		}
		return
	}

	scheduler := worker.NewScheduler(logger, worker.Job{
		Name:     "recurring",
		Interval: cfg.RecurringProcessorInterval,
		Run:      process,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduler stop error", log.FieldError, err)
		}
	})

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringProcessorInterval,
		"sqlite_db", cfg.SQLiteDBPath)
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
