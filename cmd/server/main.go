package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api"
	"github.com/example/inventory-backend/internal/cache"
	"github.com/example/inventory-backend/internal/config"
	"github.com/example/inventory-backend/internal/core"
	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/events"
	"github.com/example/inventory-backend/internal/feed"
	"github.com/example/inventory-backend/internal/firebase"
	"github.com/example/inventory-backend/internal/logger"
	"github.com/example/inventory-backend/internal/middleware"
	"github.com/example/inventory-backend/migrations"
)

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	if err := errors.Join(appConfig.RequireDatabase(), appConfig.RequireFirebase()); err != nil {
		log.Fatalf("CRITICAL_ERROR: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := logger.New(appConfig.AppEnv)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("app_env", appConfig.AppEnv))

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	// --- 3. Relational store ---
	if appConfig.AutoMigrate {
		if err := migrate(initCtx, appConfig, zapLogger); err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to apply migrations", zap.Error(err))
		}
	}
	pool, err := db.NewPool(initCtx, appConfig)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to the database", zap.Error(err))
	}
	zapLogger.Info("Database connection pool ready", zap.Int32("max_conns", appConfig.DBMaxConns))

	// --- 4. Firebase Admin SDK (Auth + Firestore) ---
	// The clients outlive initialization, so they get an unbounded context.
	fb, err := firebase.Init(context.Background(), appConfig, zapLogger)
	if err != nil {
		pool.Close()
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}

	// --- 5. Optional Redis for auth rate limiting ---
	var rateStore middleware.RateLimitStore
	var redisCache *cache.RedisCache
	if appConfig.RateLimitEnabled() {
		redisCache, err = cache.NewRedisCache(initCtx, appConfig.RedisURL, zapLogger)
		if err != nil {
			zapLogger.Warn("Redis unavailable; auth rate limiting disabled", zap.Error(err))
		} else {
			rateStore = redisCache
		}
	}

	// --- 6. Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// --- 7. Repositories, event dispatcher and services ---
	productRepo := db.NewPostgresProductRepository(pool)
	userRepo := db.NewPostgresUserRepository(pool)
	productLogRepo := db.NewFirestoreProductLogRepository(fb.Firestore, appConfig.ProductLogCollection)

	dispatcher := events.NewDispatcher(productLogRepo, zapLogger, events.NewMetrics(registry), events.Options{
		QueueSize:      appConfig.EventQueueSize,
		Workers:        appConfig.EventWorkers,
		PublishTimeout: appConfig.EventPublishTimeout,
	})
	dispatcher.Start()

	auditService := core.NewAuditService(dispatcher, zapLogger)
	productService := core.NewProductService(productRepo, auditService, zapLogger)
	authService := core.NewAuthService(firebase.NewIdentityProvider(fb.Auth), userRepo, zapLogger)
	feedClient := feed.NewClient(
		feed.NewFirestoreSource(fb.Firestore, appConfig.ProductLogCollection, zapLogger),
		appConfig.FeedLimit, zapLogger)
	zapLogger.Info("Core services initialized successfully.")

	// --- 8. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(httpMetrics.Middleware())
	router.Use(middleware.CORSMiddleware(appConfig))

	closing := make(chan struct{})
	api.SetupRoutes(router, appConfig, zapLogger, api.Dependencies{
		ProductService: productService,
		AuthService:    authService,
		Feed:           feedClient,
		RecentLogs:     productLogRepo,
		RateLimitStore: rateStore,
		Gatherer:       registry,
		Closing:        closing,
	})

	// --- 9. Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Activity streams never finish on their own.
	httpServer.RegisterOnShutdown(func() { close(closing) })
	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- 10. Graceful Shutdown ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quitChannel:
		zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zapLogger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), appConfig.ShutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server forced to shut down", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		zapLogger.Warn("Product events still queued at shutdown were dropped", zap.Error(err))
	}
	if err := fb.Close(); err != nil {
		zapLogger.Warn("Failed to close Firestore client", zap.Error(err))
	}
	if redisCache != nil {
		redisCache.Close()
	}
	pool.Close()

	zapLogger.Info("Server exiting gracefully.")
}

func migrate(ctx context.Context, appConfig *config.Config, zapLogger *zap.Logger) error {
	migrator, err := db.NewMigrator(appConfig.DatabaseURL, migrations.FS, zapLogger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Up(ctx)
}
