package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresGetTherapistApplication(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "professional_name", "email", "phone", "specialty", "specialization", "bio",
		"location", "languages", "credentials", "clinic_affiliations", "status", "submitted_at",
		"reviewed_at", "rejection_reason", "psychologist_id", "version", "created_at", "updated_at",
	}).AddRow(
		"app-1", "user-1", "Dr. Ana", "ana@example.com", nil, "Anxiety", `{"play therapy",CBT}`, nil,
		"Madrid", "{es,en}", []byte(`[{"type":"license","number":"M-123"}]`), []byte(`[]`), "pending", now,
		nil, nil, nil, int64(3), now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM therapist_applications WHERE id = \$1`).
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := store.GetTherapistApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.TherapistPending, app.Status)
	assert.Equal(t, []string{"play therapy", "CBT"}, app.Specialization)
	assert.Equal(t, []string{"es", "en"}, app.Languages)
	require.Len(t, app.Credentials, 1)
	assert.Equal(t, "M-123", *app.Credentials[0].Number)
	assert.Nil(t, app.Phone)
	assert.Equal(t, "Anxiety", *app.Specialty)
	assert.Equal(t, int64(3), app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissingIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM professional_reports WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetReport(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateIsConditionalOnVersion(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	report := &models.ProfessionalReport{ID: "r-1", Status: models.ReportResolved, ActionTaken: models.ActionWarning, Version: 4, UpdatedAt: now}

	mock.ExpectExec(`UPDATE professional_reports SET .* WHERE id = \$1 AND version = \$5`).
		WithArgs("r-1", "resolved", "warning", now, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.UpdateReport(context.Background(), report))
	assert.Equal(t, int64(5), report.Version)

	mock.ExpectExec(`UPDATE professional_reports SET`).
		WithArgs("r-1", "resolved", "warning", now, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.UpdateReport(context.Background(), report)
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "got %v", err)
	assert.Equal(t, int64(5), report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := store.CreateUser(context.Background(), &models.User{ID: "u-1", Email: "Ana@Example.com", Role: models.RoleParent})
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWithinTxCommitsAndRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	clinic := &models.Clinic{ID: "clinic-1", Name: "Sunrise", Country: "ES", ContactEmail: "a@b.co", VerificationStatus: models.VerificationVerified, CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO clinics`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	err := store.WithinTx(ctx, func(tx Store) error {
		return tx.CreateClinic(ctx, clinic)
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = store.WithinTx(ctx, func(tx Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListUsesStatusFilter(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "country", "contact_email", "contact_phone", "description", "verification_status",
		"version", "created_at", "updated_at",
	}).AddRow("clinic-1", "Sunrise", "ES", "a@b.co", nil, nil, "verified", int64(1), now, now)

	mock.ExpectQuery(`SELECT .* FROM clinics`).
		WithArgs("verified").
		WillReturnRows(rows)

	clinics, err := store.ListClinics(context.Background(), models.VerificationVerified)
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, models.VerificationVerified, clinics[0].VerificationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClinicApplicationKeepsInviteExpiry(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := now.Add(7 * 24 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "clinic_name", "country", "contact_email", "contact_phone", "description", "has_document",
		"document_key", "status", "submitted_at", "reviewed_at", "rejection_reason", "account_created",
		"invite_link", "invite_expires_at", "clinic_id", "version",
	}).AddRow(
		"ca-1", "Sunrise", "ES", "a@b.co", nil, nil, true,
		"clinic-applications/ca-1/doc.pdf", "approved", now, now, nil, false,
		"https://app.test/clinic-invite?token=abc", expires, "clinic-1", int64(2),
	)
	mock.ExpectQuery(`SELECT .* FROM clinic_applications WHERE id = \$1`).
		WithArgs("ca-1").
		WillReturnRows(rows)

	app, err := store.GetClinicApplication(context.Background(), "ca-1")
	require.NoError(t, err)
	require.NotNil(t, app.InviteExpiresAt)
	assert.Equal(t, expires, *app.InviteExpiresAt)
	assert.True(t, app.InviteOpen(now))
	assert.False(t, app.InviteOpen(expires))

	mock.ExpectExec(`UPDATE clinic_applications SET`).
		WithArgs("ca-1", "approved", app.ReviewedAt, nil, true, nil, nil, app.ClinicID, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, app.RedeemInvite(now))
	require.NoError(t, store.UpdateClinicApplication(context.Background(), app))
	assert.Equal(t, int64(3), app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
