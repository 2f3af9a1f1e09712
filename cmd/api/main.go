package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/nutrition-pipeline/internal/adapters/http"
	"github.com/kirillkom/nutrition-pipeline/internal/bootstrap"
	"github.com/kirillkom/nutrition-pipeline/internal/config"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/logging"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/metrics"
)

const serviceName = "api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName, httpMetrics.Registerer())

	app, err := bootstrap.New(ctx, cfg, logger, pipelineMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	gates := make([]httpadapter.ProviderGate, 0, len(app.Gates))
	for _, gate := range app.Gates {
		gates = append(gates, gate)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Images:    app.ImageUC,
		Labels:    app.LabelUC,
		Barcodes:  app.BarcodeUC,
		Foods:     app.FoodsUC,
		Reports:   app.ReportsUC,
		Estimator: app.Estimator,
		Gates:     gates,
		Metrics:   httpMetrics,
		Logger:    logger,
	}).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "detection_mode", cfg.DetectionMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
