package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/practical-scheduler/api/swagger"
	"github.com/noah-isme/practical-scheduler/internal/catalog"
	"github.com/noah-isme/practical-scheduler/internal/handler"
	"github.com/noah-isme/practical-scheduler/internal/middleware"
	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/internal/repository"
	"github.com/noah-isme/practical-scheduler/internal/scheduling"
	"github.com/noah-isme/practical-scheduler/internal/service"
	"github.com/noah-isme/practical-scheduler/pkg/cache"
	"github.com/noah-isme/practical-scheduler/pkg/config"
	"github.com/noah-isme/practical-scheduler/pkg/database"
	"github.com/noah-isme/practical-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/practical-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/practical-scheduler/pkg/middleware/requestid"
)

// @title Practical Scheduler API
// @version 1.0.0
// @description Batch scheduling for practical examinations
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open schedule store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	cat, err := catalog.Load(catalog.Source{VerifiedDir: cfg.Catalog.VerifiedDir, ExtractedDir: cfg.Catalog.ExtractedDir}, logr)
	if err != nil {
		logr.Fatal("failed to load catalog", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, overview cache disabled", zap.Error(err))
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Overview.CacheTTL, logr, cfg.Overview.CacheEnabled)
	// Cached overviews may predate the catalog just loaded.
	cacheSvc.InvalidatePattern(ctx, cache.OverviewPattern)

	batchRepo := repository.NewBatchRepository(db)
	memberRepo := repository.NewBatchMemberRepository(db)
	indexRepo := repository.NewAssignmentIndexRepository(db)

	rules := scheduling.Rules{
		BatchSizeMax:         cfg.Rules.BatchSizeMax,
		BatchDurationMinutes: cfg.Rules.BatchDurationMinutes,
		MaxBatchesPerDay:     cfg.Rules.MaxBatchesPerDay,
		MinGapMinutes:        cfg.Rules.MinGapMinutes,
		SmallCohortThreshold: cfg.Rules.SmallCohortThreshold,
		DefaultStartTime:     cfg.Rules.DefaultStartTime,
	}
	batchSvc := service.NewBatchService(batchRepo, memberRepo, indexRepo, cat, db, validate, cacheSvc, metrics, logr, rules)
	overviewSvc := service.NewOverviewService(batchRepo, memberRepo, indexRepo, cat, cacheSvc, cfg.Overview.CacheTTL, logr)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		OperatorUsername:  cfg.Operator.Username,
		OperatorPassword:  cfg.Operator.PasswordHash,
	})

	exportHandler := handler.NewExportHandler(nil)
	if cfg.Exports.Enabled {
		exportSvc, queue, err := startExports(ctx, cfg, batchRepo, cat, metrics, validate, logr)
		if err != nil {
			logr.Fatal("failed to start export pipeline", zap.Error(err))
		}
		defer queue.Stop()
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Batches:    handler.NewBatchHandler(batchSvc),
		Practicals: handler.NewPracticalHandler(overviewSvc),
		Students:   handler.NewStudentHandler(overviewSvc),
		Exports:    exportHandler,
		Metrics:    handler.NewMetricsHandler(metrics, db),
	}, middleware.JWT(authSvc), middleware.RequireRoles(models.RoleOperator))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "practicals", len(cat.List(models.PracticalFilter{})))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
