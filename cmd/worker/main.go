package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/attendee-presence/internal/bootstrap"
	"github.com/kirillkom/attendee-presence/internal/config"
	"github.com/kirillkom/attendee-presence/internal/infrastructure/watch"
	"github.com/kirillkom/attendee-presence/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           worker.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	runBatch := func(batchCtx context.Context) error {
		summary, err := worker.IngestUC.Run(batchCtx)
		if err != nil {
			return err
		}
		worker.Metrics.ObserveBatch(summary)
		return nil
	}

	if err := runBatch(ctx); err != nil {
		logger.Error("ingest_batch_failed", "root", worker.Source.BasePath(), "error", err)
		if !cfg.IngestWatch {
			os.Exit(1)
		}
	}
	if !cfg.IngestWatch {
		return
	}

	watcher := watch.New(watch.Config{
		Dir:        worker.Source.BasePath(),
		Extensions: cfg.SourceDocumentExtensions,
		Debounce:   cfg.IngestWatchDebounce,
	}, logger)
	if err := watcher.Run(ctx, runBatch); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_watch_failed", "error", err)
		os.Exit(1)
	}
}
