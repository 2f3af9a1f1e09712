package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

func TestAnalyzeImageBuildsAndPublishesReport(t *testing.T) {
	detector := &detectorFake{items: []domain.DetectedItem{{Name: "salmon", Grams: 150, Confidence: 0.9, Source: domain.SourceGPT}}}
	publisher := &publisherFake{}
	observer := &observerFake{}
	uc := NewImageAnalysisUseCase(detector, publisher, observer, nil)

	report, err := uc.AnalyzeImage(context.Background(), photo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(report.ID); err != nil {
		t.Fatalf("expected uuid report id, got %q", report.ID)
	}
	if report.Kind != domain.ReportImage || len(report.Items) != 1 || report.CreatedAt.IsZero() {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Flags == nil {
		t.Fatalf("flags must never be nil")
	}
	if len(publisher.published) != 1 || publisher.published[0].ID != report.ID {
		t.Fatalf("expected report to be published once")
	}
	if len(observer.statuses) != 1 || observer.statuses[0] != domain.LegacyOK {
		t.Fatalf("unexpected observed statuses %v", observer.statuses)
	}
}

func TestAnalyzeImagePublishFailureStillReturnsReport(t *testing.T) {
	detector := &detectorFake{items: []domain.DetectedItem{}}
	uc := NewImageAnalysisUseCase(detector, &publisherFake{err: errors.New("nats: no responders")}, nil, nil)

	report, err := uc.AnalyzeImage(context.Background(), photo)
	if err != nil {
		t.Fatalf("publish failure must not fail analysis, got %v", err)
	}
	if domain.DeriveLegacyStatus(*report) != domain.LegacyNoDetection {
		t.Fatalf("expected no_detection for empty items")
	}
}

func TestAnalyzeImagePropagatesCancellation(t *testing.T) {
	detector := &detectorFake{err: domain.WrapError(domain.ErrCanceled, "route detection", context.Canceled)}
	uc := NewImageAnalysisUseCase(detector, nil, nil, nil)

	if _, err := uc.AnalyzeImage(context.Background(), photo); !errors.Is(err, domain.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestAnalyzeLabelParsesAndFlags(t *testing.T) {
	uc := NewLabelAnalysisUseCase(nil, nil, nil)

	report, err := uc.AnalyzeLabel(context.Background(),
		"Nutrition Facts per 100g Calories 140 Sugars 39g Sodium 35mg Ingredients: water, high fructose corn syrup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Facts == nil || report.Facts.Per100.SugarG == nil || *report.Facts.Per100.SugarG != 39 {
		t.Fatalf("expected sugar 39, got %+v", report.Facts)
	}
	if len(report.Flags) != 2 || report.Flags[0].Code != "hfcs" || report.Flags[1].Code != "high_sugar" {
		t.Fatalf("unexpected flags %+v", report.Flags)
	}
}

func TestAnalyzeLabelEmptyTextIsNoDetection(t *testing.T) {
	uc := NewLabelAnalysisUseCase(nil, nil, nil)
	report, err := uc.AnalyzeLabel(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := domain.DeriveLegacyStatus(*report); got != domain.LegacyNoDetection {
		t.Fatalf("expected no_detection, got %q", got)
	}
}

func TestLookupBarcodeBuildsFactsFromProduct(t *testing.T) {
	provider := &providerFake{product: &domain.Product{
		Code:            "5449000000996",
		Name:            "Cola",
		Brand:           "Acme",
		Nutrition:       domain.NutrientSet{EnergyKcal: domain.Float(42), SugarG: domain.Float(10.6), SodiumMg: domain.Float(4)},
		IngredientsText: "carbonated water, sugar, phosphoric acid",
		ServingSizeRaw:  "330 ml",
		ServingGrams:    domain.Float(330),
	}}
	uc := NewBarcodeLookupUseCase(provider, nil, nil, nil)

	report, err := uc.LookupBarcode(context.Background(), "5449000-000996")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.lookups) != 1 || provider.lookups[0] != "5449000000996" {
		t.Fatalf("expected normalized barcode lookup, got %v", provider.lookups)
	}
	if report.ProductName != "Cola" || report.Fallback {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Facts.PerServing.SugarG == nil || *report.Facts.PerServing.SugarG != 34.98 {
		t.Fatalf("expected derived serving sugar 34.98, got %v", report.Facts.PerServing.SugarG)
	}
	if len(report.Flags) != 1 || report.Flags[0].Code != "phosphates" {
		t.Fatalf("unexpected flags %+v", report.Flags)
	}
	if got := domain.DeriveLegacyStatus(*report); got != domain.LegacyOK {
		t.Fatalf("expected ok, got %q", got)
	}
}

func TestLookupBarcodeDegradesWhenProviderDown(t *testing.T) {
	for _, kind := range []error{domain.ErrProviderDown, domain.ErrSafeMode} {
		t.Run(kind.Error(), func(t *testing.T) {
			provider := &providerFake{lookupErr: fmt.Errorf("openfoodfacts skipped: %w", kind)}
			uc := NewBarcodeLookupUseCase(provider, nil, nil, nil)

			report, err := uc.LookupBarcode(context.Background(), "12345678")
			if err != nil {
				t.Fatalf("provider outage must degrade, got %v", err)
			}
			if !report.Fallback || report.DegradedReason == "" {
				t.Fatalf("expected fallback report, got %+v", report)
			}
		})
	}
}

func TestLookupBarcodeNotFoundKeepsBarcode(t *testing.T) {
	provider := &providerFake{lookupErr: domain.WrapError(domain.ErrNotFound, "lookup", errors.New("status 0"))}
	uc := NewBarcodeLookupUseCase(provider, nil, nil, nil)

	report, err := uc.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Barcode != "12345678" || report.Fallback {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestLookupBarcodeRejectsInvalidCodes(t *testing.T) {
	uc := NewBarcodeLookupUseCase(&providerFake{}, nil, nil, nil)
	for _, code := range []string{"", "123", "12345678901234567", "12345abc"} {
		if _, err := uc.LookupBarcode(context.Background(), code); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", code, err)
		}
	}
}

func TestLookupBarcodePropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &providerFake{lookupErr: context.Canceled}
	uc := NewBarcodeLookupUseCase(provider, nil, nil, nil)

	_, err := uc.LookupBarcode(ctx, "12345678")
	if !errors.Is(err, domain.ErrCanceled) || errors.Is(err, domain.ErrProviderDown) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestReportStorePersistAndGet(t *testing.T) {
	repo := &reportRepoFake{}
	uc := NewReportStoreUseCase(repo)
	id := uuid.NewString()

	if err := uc.PersistReport(context.Background(), &domain.Report{ID: id, Kind: domain.ReportLabel}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := uc.GetByID(context.Background(), id)
	if err != nil || got.Kind != domain.ReportLabel {
		t.Fatalf("unexpected report %+v err=%v", got, err)
	}
	if _, err := uc.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := uc.PersistReport(context.Background(), &domain.Report{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing id, got %v", err)
	}
}
