package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/flags"
	"github.com/kirillkom/nutrition-pipeline/internal/core/labelparse"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
)

type ImageAnalysisUseCase struct {
	detector ports.FoodDetector
	sink     reportSink
}

func NewImageAnalysisUseCase(
	detector ports.FoodDetector,
	publisher ports.ReportPublisher,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *ImageAnalysisUseCase {
	return &ImageAnalysisUseCase{
		detector: detector,
		sink:     newReportSink(publisher, observer, logger),
	}
}

// AnalyzeImage routes the input to detection. An empty input or a failing
// backend gives a report without items.
func (uc *ImageAnalysisUseCase) AnalyzeImage(ctx context.Context, in domain.DetectionInput) (*domain.Report, error) {
	items, err := uc.detector.Route(ctx, in)
	if err != nil {
		return nil, err
	}
	report := &domain.Report{
		Kind:  domain.ReportImage,
		Items: items,
	}
	return uc.sink.finish(ctx, report), nil
}

type LabelAnalysisUseCase struct {
	sink reportSink
}

func NewLabelAnalysisUseCase(
	publisher ports.ReportPublisher,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *LabelAnalysisUseCase {
	return &LabelAnalysisUseCase{sink: newReportSink(publisher, observer, logger)}
}

// AnalyzeLabel parses OCR text and flags it. Unreadable text yields an empty
// report rather than partial guesses.
func (uc *LabelAnalysisUseCase) AnalyzeLabel(ctx context.Context, ocrText string) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, asCanceled("analyze label", err)
	}
	facts := labelparse.Parse(ocrText)
	report := &domain.Report{
		Kind:  domain.ReportLabel,
		Facts: &facts,
		Flags: flags.Evaluate(facts),
	}
	return uc.sink.finish(ctx, report), nil
}

type BarcodeLookupUseCase struct {
	provider ports.ProductProvider
	sink     reportSink
}

func NewBarcodeLookupUseCase(
	provider ports.ProductProvider,
	publisher ports.ReportPublisher,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *BarcodeLookupUseCase {
	return &BarcodeLookupUseCase{
		provider: provider,
		sink:     newReportSink(publisher, observer, logger),
	}
}

// LookupBarcode resolves a product. Provider outages degrade to a report
// with Fallback set; only invalid input and cancellation are errors.
func (uc *BarcodeLookupUseCase) LookupBarcode(ctx context.Context, barcode string) (*domain.Report, error) {
	code, err := NormalizeBarcode(barcode)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{Kind: domain.ReportBarcode, Barcode: code}
	product, err := uc.provider.Lookup(ctx, code)
	switch {
	case err == nil:
		fillFromProduct(report, product)
	case isCanceled(ctx, err):
		return nil, asCanceled("lookup barcode", err)
	case domain.IsKind(err, domain.ErrNotFound):
	case domain.IsKind(err, domain.ErrProviderDown), domain.IsKind(err, domain.ErrSafeMode), domain.IsKind(err, domain.ErrTemporary):
		report.Fallback = true
		report.DegradedReason = err.Error()
	default:
		report.Fallback = true
		report.DegradedReason = err.Error()
		uc.sink.logger.Warn("barcode_lookup_failed", "barcode", code, "error", err)
	}
	return uc.sink.finish(ctx, report), nil
}

func fillFromProduct(report *domain.Report, product *domain.Product) {
	if product == nil {
		return
	}
	report.ProductName = strings.TrimSpace(product.Name)
	report.Brand = strings.TrimSpace(product.Brand)

	facts := domain.ParsedNutritionFacts{
		Per100:          product.Nutrition,
		ServingSizeRaw:  product.ServingSizeRaw,
		IngredientsText: product.IngredientsText,
	}
	if product.ServingGrams != nil {
		facts.PerServing = labelparse.DerivePerServing(product.Nutrition, *product.ServingGrams)
	}
	report.Facts = &facts
	report.Flags = flags.Evaluate(facts)
}

// NormalizeBarcode strips spaces and dashes and accepts 8 to 14 digits.
func NormalizeBarcode(raw string) (string, error) {
	code := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	if len(code) < 8 || len(code) > 14 {
		return "", domain.WrapError(domain.ErrInvalidInput, "normalize barcode", fmt.Errorf("barcode must have 8 to 14 digits, got %q", raw))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", domain.WrapError(domain.ErrInvalidInput, "normalize barcode", fmt.Errorf("barcode must be numeric, got %q", raw))
		}
	}
	return code, nil
}
