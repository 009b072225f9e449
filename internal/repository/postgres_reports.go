package repository

import (
	"context"
	"fmt"

	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

const reportColumns = `id, reporter_id, psychologist_id, reason, details, status, action_taken, version,
	created_at, updated_at`

func scanReport(row rowScanner) (*models.ProfessionalReport, error) {
	var (
		r                      models.ProfessionalReport
		reason, status, action string
	)
	err := row.Scan(&r.ID, &r.ReporterID, &r.PsychologistID, &reason, &r.Details, &status, &action,
		&r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Reason = models.ReportReason(reason)
	r.Status = models.ReportStatus(status)
	r.ActionTaken = models.ReportAction(action)
	return &r, nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, r *models.ProfessionalReport) error {
	r.Version = 1
	_, err := s.db.ExecContext(ctx, `INSERT INTO professional_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.ReporterID, r.PsychologistID, string(r.Reason), r.Details, string(r.Status),
		string(r.ActionTaken), r.Version, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*models.ProfessionalReport, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM professional_reports WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "report")
	}
	return r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, status models.ReportStatus) ([]models.ProfessionalReport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM professional_reports
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC`, nullable(string(status)))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []models.ProfessionalReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateReport(ctx context.Context, r *models.ProfessionalReport) error {
	err := s.execVersioned(ctx, "report", `UPDATE professional_reports SET
		status = $2, action_taken = $3, updated_at = $4, version = version + 1
		WHERE id = $1 AND version = $5`,
		r.ID, string(r.Status), string(r.ActionTaken), r.UpdatedAt, r.Version)
	if err != nil {
		return err
	}
	r.Version++
	return nil
}
