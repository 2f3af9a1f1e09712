package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/nutrition-pipeline/internal/config"
	"github.com/kirillkom/nutrition-pipeline/internal/core/portion"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
	"github.com/kirillkom/nutrition-pipeline/internal/core/usecase"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/enrichment"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/openfoodfacts"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/queue/nats"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/vision"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue     ports.ReportQueue
	ReportsUC *usecase.ReportStoreUseCase
	ImageUC   ports.ImageAnalyzer
	LabelUC   ports.LabelAnalyzer
	BarcodeUC ports.BarcodeAnalyzer
	FoodsUC   ports.FoodSearcher
	Estimator *portion.Estimator
	Gates     []*resilience.HealthGate

	closeFn func()
}

// New wires the pipeline. pipelineMetrics may be nil.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, pipelineMetrics *metrics.PipelineMetrics) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		observer     ports.PipelineObserver
		gateObserver resilience.GateObserver
		execOpts     []resilience.ExecutorOption
	)
	if pipelineMetrics != nil {
		observer = pipelineMetrics
		gateObserver = pipelineMetrics
		execOpts = append(execOpts, resilience.WithBreakerObserver(pipelineMetrics.ObserveBreakerTransition))
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	reportRepo := postgres.NewReportRepository(db)
	catalog := postgres.NewFoodCatalog(db)

	detectionPolicy := resilience.DetectionConfig()
	detectionPolicy.RetryMaxAttempts = cfg.DetectionRetries
	detectionExec := resilience.NewExecutor(detectionPolicy, execOpts...)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.PublishConfig(), execOpts...),
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	gpt := ollama.NewDetector(ollama.New(cfg.OllamaURL, cfg.OllamaVisionModel, detectionExec))
	labeler := vision.New(cfg.VisionURL, detectionExec)
	estimator := portion.NewEstimator(nil)
	router := usecase.NewDetectionRouter(cfg.DetectionMode, gpt, labeler, estimator, observer, logger)

	products := enrichment.NewGatedProvider(
		openfoodfacts.New(cfg.OFFURL, cfg.ProductCacheTTL),
		resilience.GateConfig{
			Name:         "openfoodfacts",
			TTL:          cfg.HealthCacheTTL,
			ProbeTimeout: cfg.HealthProbeTimeout,
			SafeMode:     cfg.EnrichmentSafeMode,
			Logger:       logger,
			Observer:     gateObserver,
		},
	)

	logger.Info("pipeline_wired",
		"detection_mode", router.Mode(),
		"enrichment_safe_mode", cfg.EnrichmentSafeMode,
	)

	return &App{
		Config: cfg,
		Queue:  queue,

		ReportsUC: usecase.NewReportStoreUseCase(reportRepo),
		ImageUC:   usecase.NewImageAnalysisUseCase(router, queue, observer, logger),
		LabelUC:   usecase.NewLabelAnalysisUseCase(queue, observer, logger),
		BarcodeUC: usecase.NewBarcodeLookupUseCase(products, queue, observer, logger),
		FoodsUC:   usecase.NewFoodSearchUseCase(catalog, products, logger),
		Estimator: estimator,
		Gates:     []*resilience.HealthGate{products.Gate()},

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
