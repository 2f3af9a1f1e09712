package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save is idempotent on the report id so redelivered events are harmless.
func (r *ReportRepository) Save(ctx context.Context, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var barcode sql.NullString
	if report.Barcode != "" {
		barcode = sql.NullString{String: report.Barcode, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO reports (id, kind, barcode, status, fallback, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`,
		report.ID, string(report.Kind), barcode, string(domain.DeriveLegacyStatus(*report)),
		report.Fallback, payload, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload
FROM reports
WHERE id = $1
`, id)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get report", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}
