package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

const therapistApplicationColumns = `id, user_id, professional_name, email, phone, specialty, specialization,
	bio, location, languages, credentials, clinic_affiliations, status, submitted_at, reviewed_at,
	rejection_reason, psychologist_id, version, created_at, updated_at`

func scanTherapistApplication(row rowScanner) (*models.TherapistApplication, error) {
	var (
		a            models.TherapistApplication
		status       string
		credentials  []byte
		affiliations []byte
	)
	err := row.Scan(&a.ID, &a.UserID, &a.ProfessionalName, &a.Email, &a.Phone, &a.Specialty,
		pq.Array(&a.Specialization), &a.Bio, &a.Location, pq.Array(&a.Languages), &credentials,
		&affiliations, &status, &a.SubmittedAt, &a.ReviewedAt, &a.RejectionReason, &a.PsychologistID,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.TherapistApplicationStatus(status)
	if err := fromJSONB(credentials, &a.Credentials); err != nil {
		return nil, err
	}
	if err := fromJSONB(affiliations, &a.ClinicAffiliations); err != nil {
		return nil, err
	}
	if a.Specialization == nil {
		a.Specialization = []string{}
	}
	if a.Languages == nil {
		a.Languages = []string{}
	}
	if a.Credentials == nil {
		a.Credentials = []models.Credential{}
	}
	if a.ClinicAffiliations == nil {
		a.ClinicAffiliations = []models.ClinicAffiliation{}
	}
	return &a, nil
}

func (s *PostgresStore) CreateTherapistApplication(ctx context.Context, a *models.TherapistApplication) error {
	credentials, err := toJSONB(a.Credentials)
	if err != nil {
		return err
	}
	affiliations, err := toJSONB(a.ClinicAffiliations)
	if err != nil {
		return err
	}
	a.Version = 1
	_, err = s.db.ExecContext(ctx, `INSERT INTO therapist_applications (`+therapistApplicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		a.ID, a.UserID, a.ProfessionalName, a.Email, a.Phone, a.Specialty, pq.Array(a.Specialization),
		a.Bio, a.Location, pq.Array(a.Languages), credentials, affiliations, string(a.Status),
		a.SubmittedAt, a.ReviewedAt, a.RejectionReason, a.PsychologistID, a.Version, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.New(apperrors.CodeConflict, "an application already exists for this account")
	}
	if err != nil {
		return fmt.Errorf("insert therapist application: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTherapistApplication(ctx context.Context, id string) (*models.TherapistApplication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+therapistApplicationColumns+` FROM therapist_applications WHERE id = $1`, id)
	a, err := scanTherapistApplication(row)
	if err != nil {
		return nil, notFoundOr(err, "therapist application")
	}
	return a, nil
}

func (s *PostgresStore) GetTherapistApplicationByUser(ctx context.Context, userID string) (*models.TherapistApplication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+therapistApplicationColumns+` FROM therapist_applications WHERE user_id = $1`, userID)
	a, err := scanTherapistApplication(row)
	if err != nil {
		return nil, notFoundOr(err, "therapist application")
	}
	return a, nil
}

func (s *PostgresStore) ListTherapistApplications(ctx context.Context, status models.TherapistApplicationStatus) ([]models.TherapistApplication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+therapistApplicationColumns+` FROM therapist_applications
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY submitted_at DESC NULLS LAST, created_at DESC`, nullable(string(status)))
	if err != nil {
		return nil, fmt.Errorf("list therapist applications: %w", err)
	}
	defer rows.Close()

	out := []models.TherapistApplication{}
	for rows.Next() {
		a, err := scanTherapistApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan therapist application: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateTherapistApplication(ctx context.Context, a *models.TherapistApplication) error {
	credentials, err := toJSONB(a.Credentials)
	if err != nil {
		return err
	}
	affiliations, err := toJSONB(a.ClinicAffiliations)
	if err != nil {
		return err
	}
	err = s.execVersioned(ctx, "therapist application", `UPDATE therapist_applications SET
		professional_name = $2, email = $3, phone = $4, specialty = $5, specialization = $6, bio = $7,
		location = $8, languages = $9, credentials = $10, clinic_affiliations = $11, status = $12,
		submitted_at = $13, reviewed_at = $14, rejection_reason = $15, psychologist_id = $16,
		updated_at = $17, version = version + 1
		WHERE id = $1 AND version = $18`,
		a.ID, a.ProfessionalName, a.Email, a.Phone, a.Specialty, pq.Array(a.Specialization), a.Bio,
		a.Location, pq.Array(a.Languages), credentials, affiliations, string(a.Status), a.SubmittedAt,
		a.ReviewedAt, a.RejectionReason, a.PsychologistID, a.UpdatedAt, a.Version)
	if err != nil {
		return err
	}
	a.Version++
	return nil
}

const clinicApplicationColumns = `id, clinic_name, country, contact_email, contact_phone, description,
	has_document, document_key, status, submitted_at, reviewed_at, rejection_reason, account_created,
	invite_link, invite_expires_at, clinic_id, version`

func scanClinicApplication(row rowScanner) (*models.ClinicApplication, error) {
	var (
		c      models.ClinicApplication
		status string
	)
	err := row.Scan(&c.ID, &c.ClinicName, &c.Country, &c.ContactEmail, &c.ContactPhone, &c.Description,
		&c.HasDocument, &c.DocumentKey, &status, &c.SubmittedAt, &c.ReviewedAt, &c.RejectionReason,
		&c.AccountCreated, &c.InviteLink, &c.InviteExpiresAt, &c.ClinicID, &c.Version)
	if err != nil {
		return nil, err
	}
	c.Status = models.ClinicApplicationStatus(status)
	return &c, nil
}

func (s *PostgresStore) CreateClinicApplication(ctx context.Context, c *models.ClinicApplication) error {
	c.Version = 1
	_, err := s.db.ExecContext(ctx, `INSERT INTO clinic_applications (`+clinicApplicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		c.ID, c.ClinicName, c.Country, c.ContactEmail, c.ContactPhone, c.Description, c.HasDocument,
		c.DocumentKey, string(c.Status), c.SubmittedAt, c.ReviewedAt, c.RejectionReason, c.AccountCreated,
		c.InviteLink, c.InviteExpiresAt, c.ClinicID, c.Version)
	if err != nil {
		return fmt.Errorf("insert clinic application: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClinicApplication(ctx context.Context, id string) (*models.ClinicApplication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clinicApplicationColumns+` FROM clinic_applications WHERE id = $1`, id)
	c, err := scanClinicApplication(row)
	if err != nil {
		return nil, notFoundOr(err, "clinic application")
	}
	return c, nil
}

func (s *PostgresStore) ListClinicApplications(ctx context.Context, status models.ClinicApplicationStatus) ([]models.ClinicApplication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clinicApplicationColumns+` FROM clinic_applications
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY submitted_at DESC`, nullable(string(status)))
	if err != nil {
		return nil, fmt.Errorf("list clinic applications: %w", err)
	}
	defer rows.Close()

	out := []models.ClinicApplication{}
	for rows.Next() {
		c, err := scanClinicApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clinic application: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateClinicApplication(ctx context.Context, c *models.ClinicApplication) error {
	err := s.execVersioned(ctx, "clinic application", `UPDATE clinic_applications SET
		status = $2, reviewed_at = $3, rejection_reason = $4, account_created = $5, invite_link = $6,
		invite_expires_at = $7, clinic_id = $8, version = version + 1
		WHERE id = $1 AND version = $9`,
		c.ID, string(c.Status), c.ReviewedAt, c.RejectionReason, c.AccountCreated, c.InviteLink,
		c.InviteExpiresAt, c.ClinicID, c.Version)
	if err != nil {
		return err
	}
	c.Version++
	return nil
}
