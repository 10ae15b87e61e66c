package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	paymentport "github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	escrowUseCase "github.com/fairwaymarket/escrow-processor/internal/domain/usecase/escrow"
	payoutUseCase "github.com/fairwaymarket/escrow-processor/internal/domain/usecase/payout"
	webhookUseCase "github.com/fairwaymarket/escrow-processor/internal/domain/usecase/webhook"

	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/handler"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/api/routes"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/database"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/logger"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/notification"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/rail"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/repository"
	timeProvider "github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/time"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/config"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)
	defer func() { _ = appLogger.Flush() }()

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Connect to the database
	dbManager := database.NewManager(database.FromAppConfig(cfg), appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer func() { _ = dbManager.Close() }()

	// Run migrations
	if err := dbManager.MigrationManager().MigrateAll(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Initialize repositories
	transactionRepo := repository.NewTransactionRepository(dbManager.DB(), appLogger)
	holdRepo := repository.NewHoldRepository(dbManager.DB(), appLogger, tp)
	payoutRepo := repository.NewPayoutRepository(dbManager.DB(), appLogger)
	activityRepo := repository.NewActivityRepository(dbManager.DB(), appLogger)
	sellerRepo := repository.NewSellerRepository(dbManager.DB(), appLogger)
	productRepo := repository.NewProductRepository(dbManager.DB(), appLogger, tp)

	// Initialize outbound adapters
	notifier := notification.NewHTTPNotifier(
		cfg.Notification.BaseURL,
		cfg.Notification.APIKey,
		cfg.Notification.Timeout,
		appLogger,
	)
	rails := []paymentport.PayoutRail{
		rail.NewBankTransferRail(cfg.Rails.BankTransfer.BaseURL, cfg.Rails.BankTransfer.APIKey, cfg.Rails.BankTransfer.Timeout, appLogger),
		rail.NewWalletRail(cfg.Rails.Wallet.BaseURL, cfg.Rails.Wallet.APIKey, cfg.Rails.Wallet.Timeout, appLogger),
	}

	// Commission calculator with per-rail flat fees
	calculator := entity.NewCalculator(map[entity.RailKind]int64{
		entity.RailBankTransfer: cfg.Rails.BankTransfer.FeeMinor,
		entity.RailWallet:       cfg.Rails.Wallet.FeeMinor,
	})

	// Initialize use cases
	escrowService := escrowUseCase.NewService(
		transactionRepo,
		holdRepo,
		activityRepo,
		sellerRepo,
		productRepo,
		notifier,
		tp,
		appLogger,
		cfg.Escrow.ReleaseDelay,
		cfg.Escrow.AutoReleaseAfter,
		cfg.Escrow.SellerReleaseWindow,
	)

	ingestor := webhookUseCase.NewIngestor(
		transactionRepo,
		holdRepo,
		activityRepo,
		sellerRepo,
		productRepo,
		calculator,
		notifier,
		tp,
		appLogger,
	)

	executor := payoutUseCase.NewExecutor(
		transactionRepo,
		holdRepo,
		payoutRepo,
		activityRepo,
		sellerRepo,
		rails,
		notifier,
		tp,
		appLogger,
	)

	scheduler := payoutUseCase.NewScheduler(
		transactionRepo,
		holdRepo,
		escrowService,
		executor,
		tp,
		appLogger,
		cfg.Escrow.SweepBatchSize,
		cfg.Escrow.StaleClaimAfter,
	)

	// Start the background sweep worker
	sweepWorker := worker.NewSweepWorker(scheduler, cfg.Escrow.SweepInterval, appLogger)
	sweepWorker.Start()

	// Initialize API handlers
	webhookHandler := handler.NewWebhookHandler(ingestor, appLogger)
	escrowHandler := handler.NewEscrowHandler(escrowService, appLogger)
	healthHandler := handler.NewHealthHandler(dbManager.DB())

	// Initialize Gin router
	router := gin.New()

	// Setup middlewares
	routes.SetupMiddlewares(router, appLogger)

	// Setup routes
	routes.SetupRoutes(router, webhookHandler, escrowHandler, healthHandler, cfg.Webhook.Secret, appLogger)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Stop the sweep worker before closing the database it depends on
	sweepWorker.Stop()

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown the server
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	if cfg.Database.Host == "" {
		missingConfigs = append(missingConfigs, "database.host (or EP_DB_HOST environment variable)")
	}
	if cfg.Database.Port == "" {
		missingConfigs = append(missingConfigs, "database.port (or EP_DB_PORT environment variable)")
	}
	if cfg.Database.Username == "" {
		missingConfigs = append(missingConfigs, "database.username (or EP_DB_USERNAME environment variable)")
	}
	if cfg.Database.Password == "" {
		missingConfigs = append(missingConfigs, "database.password (or EP_DB_PASSWORD environment variable)")
	}
	if cfg.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database (or EP_DB_NAME environment variable)")
	}

	if cfg.Webhook.Secret == "" {
		missingConfigs = append(missingConfigs, "webhook.secret (or EP_WEBHOOK_SECRET environment variable)")
	}

	if cfg.Escrow.ReleaseDelay == 0 {
		missingConfigs = append(missingConfigs, "escrow.releaseDelay")
	}
	if cfg.Escrow.AutoReleaseAfter == 0 {
		missingConfigs = append(missingConfigs, "escrow.autoReleaseAfter")
	}
	if cfg.Escrow.SellerReleaseWindow == 0 {
		missingConfigs = append(missingConfigs, "escrow.sellerReleaseWindow")
	}
	if cfg.Escrow.SweepInterval == 0 {
		missingConfigs = append(missingConfigs, "escrow.sweepInterval")
	}

	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	return nil
}
