package ports

import (
	"context"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// DetectionBackend turns an image or a text description into raw food labels.
type DetectionBackend interface {
	Source() domain.DetectionSource
	Detect(ctx context.Context, in domain.DetectionInput) ([]domain.RawDetection, error)
}

// ProductProvider is the remote barcode and product search provider.
type ProductProvider interface {
	Lookup(ctx context.Context, barcode string) (*domain.Product, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
	Probe(ctx context.Context) error
}

// FoodCatalog is the local food catalog searched before remote providers.
type FoodCatalog interface {
	SearchFoods(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

// ReportRepository persists finished reports.
type ReportRepository interface {
	Save(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
}

// ReportPublisher announces finished reports.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *domain.Report) error
}

// ReportQueue publishes and consumes report events.
type ReportQueue interface {
	ReportPublisher
	SubscribeReports(ctx context.Context, handler func(context.Context, *domain.Report) error) error
}

// PipelineObserver receives pipeline outcomes for metrics.
type PipelineObserver interface {
	ObserveDetections(source domain.DetectionSource, kept, rejected int)
	ObserveFlags(flags []domain.Flag)
	ObserveReport(kind domain.ReportKind, status domain.LegacyStatus, fallback bool)
}
