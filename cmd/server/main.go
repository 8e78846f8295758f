// Command server runs the manufacturing ledger HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appapproval "github.com/erp/manufacturing/internal/application/approval"
	appcosting "github.com/erp/manufacturing/internal/application/costing"
	appinventory "github.com/erp/manufacturing/internal/application/inventory"
	apppayroll "github.com/erp/manufacturing/internal/application/payroll"
	appproduction "github.com/erp/manufacturing/internal/application/production"
	apptrade "github.com/erp/manufacturing/internal/application/trade"
	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/payroll/formula"
	"github.com/erp/manufacturing/internal/domain/shared/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/config"
	"github.com/erp/manufacturing/internal/infrastructure/event"
	"github.com/erp/manufacturing/internal/infrastructure/lock"
	"github.com/erp/manufacturing/internal/infrastructure/logger"
	"github.com/erp/manufacturing/internal/infrastructure/notification"
	"github.com/erp/manufacturing/internal/infrastructure/persistence"
	infrastrategy "github.com/erp/manufacturing/internal/infrastructure/strategy"
	"github.com/erp/manufacturing/internal/infrastructure/telemetry"
	"github.com/erp/manufacturing/internal/interfaces/http/handler"
	"github.com/erp/manufacturing/internal/interfaces/http/middleware"
	"github.com/erp/manufacturing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// notificationStreamMaxLen caps the approximate length of the Redis stream
const notificationStreamMaxLen = 10000

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting manufacturing ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(log, tracerProvider, meterProvider)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			return err
		}
	}
	log.Info("Database connected")

	// Locking
	backend := lock.BackendMemory
	if cfg.Costing.DistributedLock {
		backend = lock.BackendRedis
	}
	locker, redisClient, err := lock.NewFactory(lock.Config{
		Backend: backend,
		TTL:     cfg.Costing.LockTTL,
		MaxWait: cfg.Costing.LockWait,
		Redis: lock.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	}, lock.WithLogger(log)).Create()
	if err != nil {
		return err
	}
	if redisClient == nil && cfg.Approval.NotificationStream != "" {
		redisClient, err = lock.NewRedisClient(lock.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Events and metrics
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter(telemetry.LedgerMeterName))
	if err != nil {
		return err
	}
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(telemetry.NewLedgerMetricsHandler(ledgerMetrics))
	if err := bus.Start(ctx); err != nil {
		return err
	}

	// Application services
	repos := db.Repositories()
	scope := db.TransactionScope()

	defaultMethod, err := strategy.ParseCostMethod(cfg.Costing.DefaultMethod)
	if err != nil {
		return err
	}
	registry, err := infrastrategy.NewRegistryWithDefaults(defaultMethod)
	if err != nil {
		return err
	}
	ledger := appcosting.NewService(scope, repos, registry, locker, log, appcosting.Config{
		DefaultMethod: defaultMethod,
		MaxRetries:    cfg.Costing.MaxRetries,
	})
	ledger.SetEventPublisher(bus)
	ledger.SetMetrics(ledgerMetrics)

	wip := appproduction.NewWIPService(scope, repos, ledger, locker, log, appproduction.WIPConfig{
		StrictReconciliation: cfg.Production.StrictReconciliation,
		MaxRetries:           cfg.Costing.MaxRetries,
	})
	wip.SetEventPublisher(bus)
	backflush := appproduction.NewBackflushService(scope, repos, ledger, locker, log, cfg.Costing.MaxRetries)
	backflush.SetEventPublisher(bus)

	catalog, err := appapproval.LoadCatalog(ctx, repos.ApprovalChains(), cfg.Approval.SeedChains, log)
	if err != nil {
		return err
	}
	rejectPolicy, err := approval.ParseRejectPolicy(cfg.Approval.RejectPolicy)
	if err != nil {
		return err
	}
	inbox := notification.NewGormNotificationStore(db.DB)
	notifiers := []appapproval.Notifier{inbox}
	if cfg.Approval.NotificationStream != "" {
		notifiers = append(notifiers, notification.NewRedisStreamNotifier(redisClient, cfg.Approval.NotificationStream, notificationStreamMaxLen))
	}
	approvals := appapproval.NewService(scope, repos, catalog, locker, notification.NewMultiNotifier(notifiers...), log, appapproval.Config{
		RejectPolicy:  rejectPolicy,
		NotifyTimeout: cfg.Approval.NotifyTimeout,
		MaxRetries:    cfg.Costing.MaxRetries,
	})
	approvals.SetEventPublisher(bus)
	approvals.SetMetrics(ledgerMetrics)
	approvals.RegisterHandler(apptrade.NewApprovalHandler())
	approvals.RegisterHandler(apppayroll.NewApprovalHandler())
	approvals.RegisterHandler(appinventory.NewApprovalHandler(ledger))
	defer approvals.WaitNotifications()

	purchaseOrders := apptrade.NewPurchaseOrderService(scope, repos, ledger, approvals, locker, log)
	purchaseOrders.SetEventPublisher(bus)
	adjustments := appinventory.NewAdjustmentService(repos, approvals)
	payrolls := apppayroll.NewService(repos, approvals, log, apppayroll.Config{
		DeductionRate: cfg.Payroll.DeductionRate,
		Limits: formula.Limits{
			MaxLength: cfg.Payroll.MaxFormulaLength,
			MaxDepth:  cfg.Payroll.MaxFormulaDepth,
		},
	})

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return err
	}
	engine.Use(logger.GinMiddleware(log), logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health"},
	})...)
	engine.Use(
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		}),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	health := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": db.Ping,
		"redis":    redisCheck(redisClient),
	})
	router.NewRouter(engine, router.WithHealth(health.Health)).
		RegisterAll(router.Handlers{
			Costing:       handler.NewCostingHandler(ledger),
			Production:    handler.NewProductionHandler(wip, backflush),
			Approval:      handler.NewApprovalHandler(approvals),
			Payroll:       handler.NewPayrollHandler(payrolls),
			Documents:     handler.NewDocumentHandler(purchaseOrders, adjustments),
			Notifications: handler.NewNotificationHandler(inbox),
		}).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	return nil
}

func redisCheck(client *redis.Client) handler.HealthCheck {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func shutdownTelemetry(log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
}
