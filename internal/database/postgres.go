package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = PostgresDB.PingContext(ctx); err != nil {
		return err
	}

	zap.L().Info("✅ Connected to PostgreSQL")

	return InitPostgresTables(ctx, PostgresDB)
}

// Schema is applied in order on every start. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) NOT NULL UNIQUE,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL CHECK (role IN ('parent', 'child', 'therapist', 'clinic_admin', 'platform_admin')),
		clinic_id UUID,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Profiles created by an approved application
	`CREATE TABLE IF NOT EXISTS psychologists (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		display_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		specialty VARCHAR(255),
		specialization TEXT[] NOT NULL DEFAULT '{}',
		bio TEXT,
		location VARCHAR(255),
		languages TEXT[] NOT NULL DEFAULT '{}',
		is_verified BOOLEAN NOT NULL DEFAULT TRUE,
		verification_status VARCHAR(20) NOT NULL CHECK (verification_status IN ('verified', 'suspended', 'rejected')),
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clinics (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(255) NOT NULL,
		country VARCHAR(100) NOT NULL,
		contact_email VARCHAR(255) NOT NULL,
		contact_phone VARCHAR(50),
		description TEXT,
		verification_status VARCHAR(20) NOT NULL CHECK (verification_status IN ('verified', 'suspended', 'rejected')),
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Applications
	`CREATE TABLE IF NOT EXISTS therapist_applications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		professional_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50),
		specialty VARCHAR(255),
		specialization TEXT[] NOT NULL DEFAULT '{}',
		bio TEXT,
		location VARCHAR(255),
		languages TEXT[] NOT NULL DEFAULT '{}',
		credentials JSONB NOT NULL DEFAULT '[]',
		clinic_affiliations JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(20) NOT NULL CHECK (status IN ('draft', 'pending', 'approved', 'rejected')),
		submitted_at TIMESTAMPTZ,
		reviewed_at TIMESTAMPTZ,
		rejection_reason TEXT CHECK (rejection_reason IS NULL OR status = 'rejected'),
		psychologist_id UUID REFERENCES psychologists(id),
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clinic_applications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		clinic_name VARCHAR(255) NOT NULL,
		country VARCHAR(100) NOT NULL,
		contact_email VARCHAR(255) NOT NULL,
		contact_phone VARCHAR(50),
		description TEXT,
		has_document BOOLEAN NOT NULL DEFAULT FALSE,
		document_key TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reviewed_at TIMESTAMPTZ,
		rejection_reason TEXT CHECK (rejection_reason IS NULL OR status = 'rejected'),
		account_created BOOLEAN NOT NULL DEFAULT FALSE,
		invite_link TEXT,
		invite_expires_at TIMESTAMPTZ,
		clinic_id UUID REFERENCES clinics(id),
		version BIGINT NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS professional_reports (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		reporter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		psychologist_id UUID NOT NULL REFERENCES psychologists(id) ON DELETE CASCADE,
		reason VARCHAR(40) NOT NULL CHECK (reason IN ('misconduct', 'inaccurate_info', 'inappropriate_behavior', 'other')),
		details TEXT,
		status VARCHAR(20) NOT NULL CHECK (status IN ('open', 'under_review', 'resolved', 'dismissed')),
		action_taken VARCHAR(40) NOT NULL CHECK (action_taken IN ('none', 'warning', 'temporary_suspension', 'verification_revoked')),
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Columns added after the tables first shipped
	`ALTER TABLE clinic_applications ADD COLUMN IF NOT EXISTS invite_expires_at TIMESTAMPTZ`,

	// Create indexes for better performance
	`CREATE INDEX IF NOT EXISTS idx_therapist_applications_status ON therapist_applications(status)`,
	`CREATE INDEX IF NOT EXISTS idx_clinic_applications_status ON clinic_applications(status)`,
	`CREATE INDEX IF NOT EXISTS idx_psychologists_verification_status ON psychologists(verification_status)`,
	`CREATE INDEX IF NOT EXISTS idx_clinics_verification_status ON clinics(verification_status)`,
	`CREATE INDEX IF NOT EXISTS idx_professional_reports_status ON professional_reports(status)`,
	`CREATE INDEX IF NOT EXISTS idx_professional_reports_psychologist_id ON professional_reports(psychologist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_professional_reports_created_at ON professional_reports(created_at)`,
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	for _, query := range Schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	zap.L().Info("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
