package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/practical-scheduler/internal/catalog"
	"github.com/noah-isme/practical-scheduler/internal/repository"
	"github.com/noah-isme/practical-scheduler/internal/service"
	"github.com/noah-isme/practical-scheduler/pkg/config"
	"github.com/noah-isme/practical-scheduler/pkg/jobs"
	"github.com/noah-isme/practical-scheduler/pkg/storage"
)

// startExports builds the backup pipeline and starts its worker pool and janitor.
func startExports(ctx context.Context, cfg *config.Config, batches *repository.BatchRepository, cat *catalog.Catalog, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue, error) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(batches, cat, store, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr, nil, nil)

	repo := repository.NewExportJobRepository()
	worker := service.NewExportWorker(repo, exporter, metrics, cfg.Exports.WorkerRetries+1, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)

	svc := service.NewExportJobService(repo, queue, exporter, cat, validate, logr, service.ExportJobConfig{
		ResultTTL:       signer.TTL(),
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	svc.StartCleanup(ctx)
	return svc, queue, nil
}
