package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

const userColumns = `id, email, display_name, role, clinic_id, is_active, password_hash, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &u.ClinicID, &u.IsActive, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, models.NormalizeEmail(u.Email), u.DisplayName, string(u.Role), u.ClinicID, u.IsActive, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return apperrors.New(apperrors.CodeConflict, "an account with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeEmail(email)))
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

const psychologistColumns = `id, user_id, display_name, email, specialty, specialization, bio, location,
	languages, is_verified, verification_status, version, created_at, updated_at`

func scanPsychologist(row rowScanner) (*models.Psychologist, error) {
	var (
		p      models.Psychologist
		status string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Email, &p.Specialty, pq.Array(&p.Specialization),
		&p.Bio, &p.Location, pq.Array(&p.Languages), &p.IsVerified, &status, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.VerificationStatus = models.VerificationStatus(status)
	if p.Specialization == nil {
		p.Specialization = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	return &p, nil
}

func (s *PostgresStore) CreatePsychologist(ctx context.Context, p *models.Psychologist) error {
	p.Version = 1
	_, err := s.db.ExecContext(ctx, `INSERT INTO psychologists (`+psychologistColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.UserID, p.DisplayName, p.Email, p.Specialty, pq.Array(p.Specialization), p.Bio, p.Location,
		pq.Array(p.Languages), p.IsVerified, string(p.VerificationStatus), p.Version, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.New(apperrors.CodeConflict, "a psychologist profile already exists for this account")
	}
	if err != nil {
		return fmt.Errorf("insert psychologist: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPsychologist(ctx context.Context, id string) (*models.Psychologist, error) {
	p, err := scanPsychologist(s.db.QueryRowContext(ctx, `SELECT `+psychologistColumns+` FROM psychologists WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "psychologist")
	}
	return p, nil
}

func (s *PostgresStore) ListPsychologists(ctx context.Context, status models.VerificationStatus) ([]models.Psychologist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+psychologistColumns+` FROM psychologists
		WHERE ($1::text IS NULL OR verification_status = $1)
		ORDER BY display_name`, nullable(string(status)))
	if err != nil {
		return nil, fmt.Errorf("list psychologists: %w", err)
	}
	defer rows.Close()

	out := []models.Psychologist{}
	for rows.Next() {
		p, err := scanPsychologist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan psychologist: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePsychologist(ctx context.Context, p *models.Psychologist) error {
	err := s.execVersioned(ctx, "psychologist", `UPDATE psychologists SET
		is_verified = $2, verification_status = $3, updated_at = $4, version = version + 1
		WHERE id = $1 AND version = $5`,
		p.ID, p.IsVerified, string(p.VerificationStatus), p.UpdatedAt, p.Version)
	if err != nil {
		return err
	}
	p.Version++
	return nil
}

const clinicColumns = `id, name, country, contact_email, contact_phone, description, verification_status,
	version, created_at, updated_at`

func scanClinic(row rowScanner) (*models.Clinic, error) {
	var (
		c      models.Clinic
		status string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Country, &c.ContactEmail, &c.ContactPhone, &c.Description, &status,
		&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.VerificationStatus = models.VerificationStatus(status)
	return &c, nil
}

func (s *PostgresStore) CreateClinic(ctx context.Context, c *models.Clinic) error {
	c.Version = 1
	_, err := s.db.ExecContext(ctx, `INSERT INTO clinics (`+clinicColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.Country, c.ContactEmail, c.ContactPhone, c.Description, string(c.VerificationStatus),
		c.Version, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert clinic: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClinic(ctx context.Context, id string) (*models.Clinic, error) {
	c, err := scanClinic(s.db.QueryRowContext(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "clinic")
	}
	return c, nil
}

func (s *PostgresStore) ListClinics(ctx context.Context, status models.VerificationStatus) ([]models.Clinic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clinicColumns+` FROM clinics
		WHERE ($1::text IS NULL OR verification_status = $1)
		ORDER BY name`, nullable(string(status)))
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	defer rows.Close()

	out := []models.Clinic{}
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clinic: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateClinic(ctx context.Context, c *models.Clinic) error {
	err := s.execVersioned(ctx, "clinic", `UPDATE clinics SET
		verification_status = $2, updated_at = $3, version = version + 1
		WHERE id = $1 AND version = $4`,
		c.ID, string(c.VerificationStatus), c.UpdatedAt, c.Version)
	if err != nil {
		return err
	}
	c.Version++
	return nil
}
