package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wareline/wareline/internal/app"
	"github.com/wareline/wareline/internal/auth"
	"github.com/wareline/wareline/internal/catalog/categories"
	"github.com/wareline/wareline/internal/catalog/locations"
	"github.com/wareline/wareline/internal/catalog/products"
	"github.com/wareline/wareline/internal/catalog/warehouses"
	"github.com/wareline/wareline/internal/observability"
	"github.com/wareline/wareline/internal/operations"
	"github.com/wareline/wareline/internal/platform/cache"
	"github.com/wareline/wareline/internal/platform/db"
	"github.com/wareline/wareline/internal/rbac"
	"github.com/wareline/wareline/internal/shared"
	"github.com/wareline/wareline/internal/stock"
	"github.com/wareline/wareline/internal/users"
	"github.com/wareline/wareline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, stock cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rbacMiddleware := rbac.Middleware{Logger: logger}

	productService := products.NewService(products.NewRepository(dbpool))
	productHandler := products.NewHandler(logger, productService, rbacMiddleware)

	categoryService := categories.NewService(categories.NewRepository(dbpool))
	categoryHandler := categories.NewHandler(logger, categoryService, rbacMiddleware)

	warehouseService := warehouses.NewService(warehouses.NewRepository(dbpool))
	warehouseHandler := warehouses.NewHandler(logger, warehouseService, rbacMiddleware)

	locationService := locations.NewService(locations.NewRepository(dbpool))
	locationHandler := locations.NewHandler(logger, locationService, rbacMiddleware)

	stockCache := cache.NewCache(redisClient, cfg.StockCacheTTL)
	stockService := stock.NewService(stock.NewRepository(dbpool), auditLogger, stockCache)
	stockHandler := stock.NewHandler(logger, stockService, rbacMiddleware)

	operationsService := operations.NewService(operations.NewRepository(dbpool), auditLogger, stockService, idempotencyStore)
	operationsHandler := operations.NewHandler(logger, operationsService, rbacMiddleware)

	userService := users.NewService(users.NewRepository(dbpool))
	userHandler := users.NewHandler(logger, userService, rbacMiddleware)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		ProductHandler:    productHandler,
		CategoryHandler:   categoryHandler,
		WarehouseHandler:  warehouseHandler,
		LocationHandler:   locationHandler,
		StockHandler:      stockHandler,
		OperationsHandler: operationsHandler,
		UserHandler:       userHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
