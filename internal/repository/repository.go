// Package repository persists applications, profiles, reports and accounts.
//
// Every mutable row carries a version. Update* methods write only when the stored version still
// matches the one on the entity they are given, bump the entity's Version on success, and return
// an apperrors CONFLICT error when another writer got there first.
package repository

import (
	"context"
	"database/sql"

	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateTherapistApplication(ctx context.Context, a *models.TherapistApplication) error
	GetTherapistApplication(ctx context.Context, id string) (*models.TherapistApplication, error)
	GetTherapistApplicationByUser(ctx context.Context, userID string) (*models.TherapistApplication, error)
	ListTherapistApplications(ctx context.Context, status models.TherapistApplicationStatus) ([]models.TherapistApplication, error)
	UpdateTherapistApplication(ctx context.Context, a *models.TherapistApplication) error

	CreateClinicApplication(ctx context.Context, c *models.ClinicApplication) error
	GetClinicApplication(ctx context.Context, id string) (*models.ClinicApplication, error)
	ListClinicApplications(ctx context.Context, status models.ClinicApplicationStatus) ([]models.ClinicApplication, error)
	UpdateClinicApplication(ctx context.Context, c *models.ClinicApplication) error

	CreatePsychologist(ctx context.Context, p *models.Psychologist) error
	GetPsychologist(ctx context.Context, id string) (*models.Psychologist, error)
	ListPsychologists(ctx context.Context, status models.VerificationStatus) ([]models.Psychologist, error)
	UpdatePsychologist(ctx context.Context, p *models.Psychologist) error

	CreateClinic(ctx context.Context, c *models.Clinic) error
	GetClinic(ctx context.Context, id string) (*models.Clinic, error)
	ListClinics(ctx context.Context, status models.VerificationStatus) ([]models.Clinic, error)
	UpdateClinic(ctx context.Context, c *models.Clinic) error

	CreateReport(ctx context.Context, r *models.ProfessionalReport) error
	GetReport(ctx context.Context, id string) (*models.ProfessionalReport, error)
	ListReports(ctx context.Context, status models.ReportStatus) ([]models.ProfessionalReport, error)
	UpdateReport(ctx context.Context, r *models.ProfessionalReport) error

	// WithinTx runs fn against a Store whose writes commit together or not at all.
	// Calling WithinTx on the Store handed to fn runs fn in the same transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// DBTX is what both *sql.DB and *sql.Tx provide.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
