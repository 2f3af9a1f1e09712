package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
)

type noopObserver struct{}

func (noopObserver) ObserveDetections(domain.DetectionSource, int, int)         {}
func (noopObserver) ObserveFlags([]domain.Flag)                                 {}
func (noopObserver) ObserveReport(domain.ReportKind, domain.LegacyStatus, bool) {}

// reportSink stamps finished reports and hands them to the publisher.
// Publishing is best effort: the caller always gets its report.
type reportSink struct {
	publisher ports.ReportPublisher
	observer  ports.PipelineObserver
	logger    *slog.Logger
	now       func() time.Time
}

func newReportSink(publisher ports.ReportPublisher, observer ports.PipelineObserver, logger *slog.Logger) reportSink {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return reportSink{
		publisher: publisher,
		observer:  observer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s reportSink) finish(ctx context.Context, report *domain.Report) *domain.Report {
	report.ID = uuid.NewString()
	report.CreatedAt = s.now()
	if report.Items == nil {
		report.Items = []domain.DetectedItem{}
	}
	if report.Flags == nil {
		report.Flags = []domain.Flag{}
	}

	s.observer.ObserveFlags(report.Flags)
	s.observer.ObserveReport(report.Kind, domain.DeriveLegacyStatus(*report), report.Fallback)

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			s.logger.Warn("report_publish_failed", "report_id", report.ID, "kind", report.Kind, "error", err)
		}
	}
	return report
}

// ReportStoreUseCase persists report events and serves them back.
type ReportStoreUseCase struct {
	repo ports.ReportRepository
}

func NewReportStoreUseCase(repo ports.ReportRepository) *ReportStoreUseCase {
	return &ReportStoreUseCase{repo: repo}
}

func (uc *ReportStoreUseCase) PersistReport(ctx context.Context, report *domain.Report) error {
	if report == nil || strings.TrimSpace(report.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "persist report", fmt.Errorf("report id is required"))
	}
	if err := uc.repo.Save(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (uc *ReportStoreUseCase) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get report", err)
	}
	return uc.repo.GetByID(ctx, id)
}
