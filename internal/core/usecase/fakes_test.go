package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

type backendFake struct {
	source domain.DetectionSource
	out    []domain.RawDetection
	err    error
	calls  int
}

func (f *backendFake) Source() domain.DetectionSource {
	return f.source
}

func (f *backendFake) Detect(context.Context, domain.DetectionInput) ([]domain.RawDetection, error) {
	f.calls++
	return f.out, f.err
}

type detectorFake struct {
	items []domain.DetectedItem
	err   error
}

func (f *detectorFake) Route(context.Context, domain.DetectionInput) ([]domain.DetectedItem, error) {
	return f.items, f.err
}

type publisherFake struct {
	mu        sync.Mutex
	published []*domain.Report
	err       error
}

func (f *publisherFake) PublishReport(_ context.Context, report *domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, report)
	return nil
}

type providerFake struct {
	product   *domain.Product
	lookupErr error
	found     []domain.Candidate
	searchErr error
	lookups   []string
}

func (f *providerFake) Lookup(_ context.Context, barcode string) (*domain.Product, error) {
	f.lookups = append(f.lookups, barcode)
	return f.product, f.lookupErr
}

func (f *providerFake) Search(context.Context, string, int) ([]domain.Candidate, error) {
	return f.found, f.searchErr
}

func (f *providerFake) Probe(context.Context) error {
	return nil
}

type catalogFake struct {
	found []domain.Candidate
	err   error
}

func (f *catalogFake) SearchFoods(context.Context, string, int) ([]domain.Candidate, error) {
	return f.found, f.err
}

type observerFake struct {
	mu       sync.Mutex
	kept     int
	rejected int
	statuses []domain.LegacyStatus
}

func (f *observerFake) ObserveDetections(_ domain.DetectionSource, kept, rejected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kept += kept
	f.rejected += rejected
}

func (f *observerFake) ObserveFlags([]domain.Flag) {}

func (f *observerFake) ObserveReport(_ domain.ReportKind, status domain.LegacyStatus, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
}

type reportRepoFake struct {
	saved map[string]*domain.Report
	err   error
}

func (f *reportRepoFake) Save(_ context.Context, report *domain.Report) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]*domain.Report)
	}
	copyReport := *report
	f.saved[report.ID] = &copyReport
	return nil
}

func (f *reportRepoFake) GetByID(_ context.Context, id string) (*domain.Report, error) {
	report, ok := f.saved[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get report", errors.New("no such report"))
	}
	return report, nil
}
