package httpadapter

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/nutrition-pipeline/internal/config"
	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
)

type imagesFake struct {
	got domain.DetectionInput
	err error
}

func (f *imagesFake) AnalyzeImage(_ context.Context, in domain.DetectionInput) (*domain.Report, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{
		ID:    "r-image",
		Kind:  domain.ReportImage,
		Items: []domain.DetectedItem{{Name: "salmon", Grams: 150, Confidence: 0.9, Source: domain.SourceGPT}},
		Flags: []domain.Flag{},
	}, nil
}

type labelsFake struct {
	err error
}

func (f labelsFake) AnalyzeLabel(_ context.Context, ocrText string) (*domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{ID: "r-label", Kind: domain.ReportLabel, Items: []domain.DetectedItem{}, Flags: []domain.Flag{}}, nil
}

type barcodesFake struct {
	err error
}

func (f barcodesFake) LookupBarcode(_ context.Context, barcode string) (*domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{
		ID:      "r-barcode",
		Kind:    domain.ReportBarcode,
		Barcode: barcode,
		Items:   []domain.DetectedItem{},
		Flags:   []domain.Flag{},
	}, nil
}

type foodsFake struct {
	err error
}

func (f foodsFake) SearchFoods(context.Context, string) ([]domain.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Candidate{{Name: "Skyr", ProviderRef: "lyf:1"}}, nil
}

type reportsFake struct {
	err error
}

func (f reportsFake) GetByID(_ context.Context, id string) (*domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{ID: id, Kind: domain.ReportLabel, Items: []domain.DetectedItem{}, Flags: []domain.Flag{}}, nil
}

type gateFake struct {
	safe bool
	up   bool
}

func (g *gateFake) Name() string                  { return "openfoodfacts" }
func (g *gateFake) State() resilience.HealthState { return resilience.HealthState{IsDown: !g.up, LastCheckedAt: time.Unix(0, 0)} }
func (g *gateFake) SafeMode() bool                { return g.safe }
func (g *gateFake) SetSafeMode(enabled bool)      { g.safe = enabled }
func (g *gateFake) Override(healthy bool)         { g.up = healthy }

func testDeps() Dependencies {
	return Dependencies{
		Images:   &imagesFake{},
		Labels:   labelsFake{},
		Barcodes: barcodesFake{},
		Foods:    foodsFake{},
		Reports:  reportsFake{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newTestHandler(cfg config.Config, deps Dependencies) http.Handler {
	return NewRouter(cfg, deps).Handler()
}
