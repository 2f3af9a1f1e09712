package ports

import (
	"context"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// FoodDetector routes an input to the configured detection backends.
type FoodDetector interface {
	Route(ctx context.Context, in domain.DetectionInput) ([]domain.DetectedItem, error)
}

// ImageAnalyzer builds a report from a photo or a free-text description.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, in domain.DetectionInput) (*domain.Report, error)
}

// LabelAnalyzer builds a report from nutrition label OCR text.
type LabelAnalyzer interface {
	AnalyzeLabel(ctx context.Context, ocrText string) (*domain.Report, error)
}

// BarcodeAnalyzer builds a report from a product barcode.
type BarcodeAnalyzer interface {
	LookupBarcode(ctx context.Context, barcode string) (*domain.Report, error)
}

// FoodSearcher merges local and remote food candidates.
type FoodSearcher interface {
	SearchFoods(ctx context.Context, query string) ([]domain.Candidate, error)
}

// ReportReader is the read model for persisted reports.
type ReportReader interface {
	GetByID(ctx context.Context, id string) (*domain.Report, error)
}

// ReportProcessor persists report events delivered to the worker.
type ReportProcessor interface {
	PersistReport(ctx context.Context, report *domain.Report) error
}
