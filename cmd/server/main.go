package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	billingapp "github.com/markethub/backend/internal/application/billing"
	commissionapp "github.com/markethub/backend/internal/application/commission"
	orderingapp "github.com/markethub/backend/internal/application/ordering"
	paymentapp "github.com/markethub/backend/internal/application/payment"
	settlementapp "github.com/markethub/backend/internal/application/settlement"
	"github.com/markethub/backend/internal/domain/commission"
	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/infrastructure/cache"
	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/markethub/backend/internal/infrastructure/event"
	"github.com/markethub/backend/internal/infrastructure/logger"
	infrapayment "github.com/markethub/backend/internal/infrastructure/payment"
	"github.com/markethub/backend/internal/infrastructure/persistence"
	"github.com/markethub/backend/internal/infrastructure/scheduler"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
	"github.com/markethub/backend/internal/interfaces/http/handler"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
	"github.com/markethub/backend/internal/interfaces/http/router"
)

//	@title			MarketHub Backend API
//	@version		1.0
//	@description	Multi-vendor marketplace settlement backend: order lifecycle, escrow, commission, refunds, settlements, and commission invoicing.

//	@contact.name	API Support
//	@contact.url	https://github.com/markethub/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting MarketHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry providers
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	historyRepo := persistence.NewGormStatusHistoryRepository(db.DB)
	escrowRepo := persistence.NewGormEscrowRepository(db.DB)
	refundRepo := persistence.NewGormRefundRepository(db.DB)
	payoutRepo := persistence.NewGormPayoutRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	commissionTxRepo := persistence.NewGormCommissionTransactionRepository(db.DB)
	storeRateRepo := persistence.NewGormStoreRateRepository(db.DB)
	categoryRateRepo := persistence.NewGormCategoryRateRepository(db.DB)
	jobRepo := scheduler.NewPeriodCloseJobRepository(db.DB)
	txManager := persistence.NewTxManager(db.DB)

	// The global commission rate is read on every order payment and refund,
	// so it is served from a short-TTL cache in front of the database
	globalConfigRepo := cache.NewCachedGlobalConfigRepository(
		persistence.NewGormGlobalConfigRepository(db.DB),
		cache.WithGlobalConfigLogger(log),
	)

	// Cross-instance cache invalidation over Redis Pub/Sub. The cache TTL
	// bounds staleness, so the server runs fine without Redis.
	invalidatorCtx, stopInvalidator := context.WithCancel(context.Background())
	defer stopInvalidator()
	rateInvalidator, err := cache.NewRedisRateInvalidator(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithRateInvalidatorLogger(log))
	if err != nil {
		log.Warn("Redis unavailable, running without cross-instance rate invalidation", zap.Error(err))
		rateInvalidator = nil
	} else {
		go func() {
			if err := rateInvalidator.Subscribe(invalidatorCtx, func(msg cache.RateChangeMessage) {
				globalConfigRepo.Invalidate()
			}); err != nil && invalidatorCtx.Err() == nil {
				log.Error("Rate invalidation subscription stopped", zap.Error(err))
			}
		}()
		defer func() {
			if err := rateInvalidator.Close(); err != nil {
				log.Error("Error closing rate invalidator", zap.Error(err))
			}
		}()
	}

	// Commission resolution: category override > store override > global
	ruleResolver := commission.NewRuleResolver(storeRateRepo, categoryRateRepo, globalConfigRepo, log)

	// Payment provider for refund execution
	var refundProvider payment.RefundProvider = infrapayment.NewRESTRefundProvider(cfg.Provider)
	if cfg.Provider.Sandbox {
		refundProvider = infrapayment.NewSandboxRefundProvider()
		log.Warn("Using sandbox refund provider, refunds are simulated")
	}

	// Initialize application services
	ledgerService := commissionapp.NewLedgerService(commissionTxRepo, ruleResolver, log)
	configService := commissionapp.NewConfigService(globalConfigRepo, storeRateRepo, categoryRateRepo, log)
	if rateInvalidator != nil {
		configService.SetRateChangeNotifier(rateInvalidator)
	}
	orderService := orderingapp.NewOrderService(orderRepo, historyRepo, escrowRepo, ledgerService, txManager, log)
	refundService := paymentapp.NewRefundService(orderRepo, historyRepo, escrowRepo, refundRepo, ledgerService, refundProvider, txManager, log)
	settlementService := settlementapp.NewSettlementService(settlementRepo, escrowRepo, orderRepo, payoutRepo, txManager, log)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, commissionTxRepo, txManager,
		decimal.NewFromFloat(cfg.Billing.TaxPercent), log)

	// Initialize event bus and subscribe the business metrics recorder
	eventBus := event.NewInMemoryEventBus(log)
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meterProvider.Meter("markethub-business"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	eventBus.Subscribe(telemetry.NewBusinessMetricsEventHandler(businessMetrics))

	// Inject event bus into services that publish events
	orderService.SetEventPublisher(eventBus)
	refundService.SetEventPublisher(eventBus)
	settlementService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)

	// Period-close scheduler: one settlement and one commission invoice per
	// store with activity in the previous calendar month
	cronMinute, cronHour, cronDay, err := scheduler.ParseMonthlySchedule(cfg.Scheduler.PeriodCloseCron)
	if err != nil {
		log.Fatal("Invalid period close schedule", zap.Error(err))
	}
	periodCloseScheduler := scheduler.NewPeriodCloseScheduler(scheduler.PeriodCloseSchedulerConfig{
		Enabled:           cfg.Scheduler.Enabled,
		CronDay:           cronDay,
		CronHour:          cronHour,
		CronMinute:        cronMinute,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
	}, db.DB, settlementService, invoiceService, jobRepo, log)
	if cfg.Scheduler.Enabled {
		if err := periodCloseScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start period close scheduler", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := periodCloseScheduler.Stop(shutdownCtx); err != nil {
				log.Error("Error stopping period close scheduler", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService)
	refundHandler := handler.NewRefundHandler(refundService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	commissionHandler := handler.NewCommissionHandler(configService, ledgerService)
	schedulerHandler := handler.NewSchedulerHandler(periodCloseScheduler)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics - Observability
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Orders: placement, listing, payment, order-wide refunds
	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderHandler.Place)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/number/:order_number", orderHandler.GetByOrderNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.POST("/:id/pay", orderHandler.MarkPaid)
	orderRoutes.POST("/:id/refunds", refundHandler.RefundOrder)

	// Sub-orders: per-store fulfillment and refunds
	subOrderRoutes := router.NewDomainGroup("sub-orders", "/sub-orders")
	subOrderRoutes.POST("/:id/transition", orderHandler.TransitionSubOrder)
	subOrderRoutes.POST("/:id/ship", orderHandler.ShipItems)
	subOrderRoutes.POST("/:id/cancel-items", orderHandler.CancelItems)
	subOrderRoutes.GET("/:id/history", orderHandler.GetSubOrderHistory)
	subOrderRoutes.POST("/:id/refunds", refundHandler.RefundSubOrder)
	subOrderRoutes.GET("/:id/refunds", refundHandler.ListBySubOrder)

	// Refunds: status and provider retry
	refundRoutes := router.NewDomainGroup("refunds", "/refunds")
	refundRoutes.GET("/:id", refundHandler.GetByID)
	refundRoutes.POST("/:id/retry", refundHandler.Retry)

	// Settlements: versioned per-store period statements
	settlementRoutes := router.NewDomainGroup("settlements", "/settlements")
	settlementRoutes.POST("", settlementHandler.Generate)
	settlementRoutes.GET("/:id", settlementHandler.GetByID)
	settlementRoutes.POST("/:id/regenerate", settlementHandler.Regenerate)
	settlementRoutes.POST("/:id/adjustments", settlementHandler.AddAdjustment)
	settlementRoutes.POST("/:id/finalize", settlementHandler.Finalize)

	// Commission invoices
	invoiceRoutes := router.NewDomainGroup("invoices", "/invoices")
	invoiceRoutes.POST("", invoiceHandler.Generate)
	invoiceRoutes.GET("/:id", invoiceHandler.GetByID)
	invoiceRoutes.POST("/:id/issue", invoiceHandler.Issue)
	invoiceRoutes.POST("/:id/pay", invoiceHandler.MarkPaid)
	invoiceRoutes.POST("/:id/cancel", invoiceHandler.Cancel)
	invoiceRoutes.POST("/:id/credit-note", invoiceHandler.CreateCreditNote)

	// Per-store listings
	storeRoutes := router.NewDomainGroup("stores", "/stores")
	storeRoutes.GET("/:store_id/settlements", settlementHandler.ListByStore)
	storeRoutes.GET("/:store_id/settlements/versions", settlementHandler.ListVersions)
	storeRoutes.GET("/:store_id/invoices", invoiceHandler.ListByStore)

	// Commission configuration and ledger
	commissionRoutes := router.NewDomainGroup("commission", "/commission")
	commissionRoutes.GET("/global-config", commissionHandler.GetGlobalConfig)
	commissionRoutes.PUT("/global-config", commissionHandler.SetGlobalConfig)
	commissionRoutes.GET("/stores/:store_id/override", commissionHandler.GetStoreOverride)
	commissionRoutes.PUT("/stores/:store_id/override", commissionHandler.SetStoreOverride)
	commissionRoutes.DELETE("/stores/:store_id/override", commissionHandler.ClearStoreOverride)
	commissionRoutes.GET("/categories/:category_id/override", commissionHandler.GetCategoryOverride)
	commissionRoutes.PUT("/categories/:category_id/override", commissionHandler.SetCategoryOverride)
	commissionRoutes.DELETE("/categories/:category_id/override", commissionHandler.ClearCategoryOverride)
	commissionRoutes.GET("/escrows/:escrow_id/ledger", commissionHandler.ListLedgerByEscrow)
	commissionRoutes.GET("/stores/:store_id/ledger", commissionHandler.ListLedgerByStore)

	// Period close: monthly settlement + invoicing runs
	periodCloseRoutes := router.NewDomainGroup("period-close", "/period-close")
	periodCloseRoutes.GET("/status", schedulerHandler.GetStatus)
	periodCloseRoutes.POST("/run", schedulerHandler.TriggerManualRun)
	periodCloseRoutes.POST("/run-period", schedulerHandler.TriggerPeriod)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(orderRoutes).
		Register(subOrderRoutes).
		Register(refundRoutes).
		Register(settlementRoutes).
		Register(invoiceRoutes).
		Register(storeRoutes).
		Register(commissionRoutes).
		Register(periodCloseRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromGin(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
