package main

import (
	"context"
	"os"
	"time"

	"conti/internal/amqp"
	"conti/internal/cache"
	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/core"
	apphttp "conti/internal/http"
	"conti/internal/log"
	"conti/internal/receipts"
	"conti/internal/services"
)

const (
	categoryCacheSize = 512
	categoryCacheTTL  = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting conti-api", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Events are optional: without a broker the ledger still works, the
	// mirror just stops following it.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - ledger events will not be published")
	}

	store, closeStore := openReceipts(logger, cfg)

	categoryCache := cache.NewLRUCache[int64, core.Category](categoryCacheSize, categoryCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(categoryCache)
	cacheManager.StartCleanup(time.Minute)

	ledger := services.NewLedgerService(repo, publisher, logger)
	ledger.SetDefaultPageSize(cfg.PageSize)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		DB:         repo,
		Ledger:     ledger,
		Planning:   services.NewPlanningService(repo, logger),
		Categories: services.NewCategoryService(repo, categoryCache, logger),
		Recurring:  services.NewRecurringService(repo, logger),
		Receipts:   store,
		Logger:     logger,
	}, apphttp.Options{
		JWTSecret:      []byte(cfg.JWTSecret),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		closeStore()
	})

	logger.Info("Starting conti server",
		"port", cfg.Port,
		"receipts", cfg.ReceiptsBackend,
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// openReceipts builds the configured receipt store. The returned func releases
// it. A store that cannot be opened disables receipts instead of failing the
// whole API.
func openReceipts(logger *log.Logger, cfg *config.Config) (receipts.Store, func()) {
	logger = logger.WithComponent(log.ComponentReceipts)
	switch cfg.ReceiptsBackend {
	case config.ReceiptsGCS:
		gcs, err := receipts.NewGCSStore(context.Background(), cfg.ReceiptsBucket)
		if err != nil {
			logger.Error("Failed to open GCS bucket, receipts disabled", log.FieldError, err, "bucket", cfg.ReceiptsBucket)
			return nil, func() {}
		}
		logger.Info("Receipts stored in GCS", "bucket", cfg.ReceiptsBucket)
		return gcs, func() {
			if err := gcs.Close(); err != nil {
				logger.Warn("GCS client close error", log.FieldError, err)
			}
		}
	default:
		fs, err := receipts.NewFSStore(cfg.ReceiptsDir)
		if err != nil {
			logger.Error("Failed to open receipts directory, receipts disabled", log.FieldError, err, "dir", cfg.ReceiptsDir)
			return nil, func() {}
		}
		logger.Info("Receipts stored on disk", "dir", cfg.ReceiptsDir)
		return fs, func() {}
	}
}
