// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/container"
	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/infrastructure/email"
	"github.com/logiclens/gatepass-go/internal/infrastructure/messaging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/performance"
	"github.com/logiclens/gatepass-go/internal/infrastructure/pass"
	"github.com/logiclens/gatepass-go/internal/infrastructure/persistence/database"
	"github.com/logiclens/gatepass-go/internal/infrastructure/persistence/visitorstore"
	"github.com/logiclens/gatepass-go/internal/presentation/http/server"
	"github.com/logiclens/gatepass-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until the
// process receives a shutdown signal.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Channeled logger
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Startup().Info("Gatepass server starting")

	perfTracker := performance.NewTracker(logger)

	// Step 2: Database connection and schema
	logger.Startup().Info("Connecting to database...")
	driver, dsn, err := database.DataSourceName()
	if err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	db, err := database.NewConnectionWithLogger(driver, dsn, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Startup().Info("Database ready", "driver", driver)

	// Step 3: Mail service (noop sink when unconfigured so the workflow
	// keeps working in development)
	var mailer email.Service
	mailer, err = email.NewService()
	if err != nil {
		logger.Startup().Warn("Email provider not configured, outbound mail will be discarded", "error", err)
		mailer = email.NewNoopService(logger)
	}

	// Step 4: Pass renderer (Chrome primary only when a frontend exists)
	var primary pass.Strategy
	if config.FrontendBaseURL != "" {
		primary = pass.NewChromeStrategy(
			config.FrontendBaseURL, config.ChromePath,
			config.RenderNavTimeout, config.RenderReadyTimeout)
		logger.Startup().Info("Chrome pass rendering enabled", "frontend", config.FrontendBaseURL)
	} else {
		logger.Startup().Info("No frontend configured, passes use direct drawing only")
	}
	renderer := pass.NewRenderer(primary, pass.NewFallbackStrategy(config.EmailFromName), logger)

	// Step 5: Services
	broadcaster := messaging.NewBroadcaster(logger)
	repo := visitorstore.NewRepository(db.DB, logger)

	dispatchService := services.NewDispatchService(
		mailer, renderer, logger,
		config.HostDecisionBaseURL, config.TokenExpiryWindow, config.ArtifactsDir)

	visitorService := services.NewVisitorService(
		repo, dispatchService, broadcaster, logger, perfTracker,
		services.VisitorServiceConfig{
			CodePrefix:    config.VisitorCodePrefix,
			RequestWindow: config.RequestExpiryWindow,
			TokenWindow:   config.TokenExpiryWindow,
			ArtifactsDir:  config.ArtifactsDir,
		})

	exportService := services.NewExportService(repo, logger)

	adminAuthService := services.NewAdminAuthService(
		logger, config.AdminUser, config.AdminPasswordHash, config.AdminPassword,
		config.JWTSecret, config.AdminTokenTTL)
	if !adminAuthService.Enabled() {
		logger.Startup().Warn("Admin console disabled: set ADMIN_USER, ADMIN_PASSWORD (or hash) and JWT_SECRET to enable")
	}

	appContainer := container.NewContainer(
		visitorService, dispatchService, exportService, adminAuthService,
		logger, perfTracker, broadcaster, db)
	logger.Startup().Info("Dependency injection container created")

	// Step 6: Expiry sweep worker
	go runExpirySweep(ctx, visitorService, logger)
	logger.Startup().Info("Expiry sweep worker started", "interval", config.ExpirySweepInterval)

	// Step 7: HTTP server
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// runExpirySweep periodically expires pending requests past their deadline.
func runExpirySweep(ctx context.Context, visitorService *services.VisitorService, logger *logging.ChanneledLogger) {
	interval := config.ExpirySweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := visitorService.SweepExpired(ctx); err != nil {
				logger.System().Error("Expiry sweep failed", "error", err)
			}
		}
	}
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
