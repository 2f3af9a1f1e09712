package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/bootstrap"
	"github.com/kirillkom/nutrition-pipeline/internal/config"
	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/logging"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeReports(ctx, func(handlerCtx context.Context, report *domain.Report) error {
		if !report.CreatedAt.IsZero() {
			workerMetrics.ObserveEventLag(serviceName, time.Since(report.CreatedAt))
		}
		workerMetrics.StartPersist()
		started := time.Now()

		persistCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		err := app.ReportsUC.PersistReport(persistCtx, report)
		workerMetrics.FinishPersist(serviceName, time.Since(started), err)
		if err != nil {
			return err
		}
		logger.Debug("report_persisted", "report_id", report.ID, "kind", report.Kind)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}
}
