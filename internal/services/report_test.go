package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

func psychologistStatus(t *testing.T, env *testEnv, id string) models.VerificationStatus {
	t.Helper()
	p, err := env.store.GetPsychologist(context.Background(), id)
	require.NoError(t, err)
	return p.VerificationStatus
}

func TestReportCreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	report, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID, Details: strPtr("  missed sessions  ")})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonOther, report.Reason)
	assert.Equal(t, models.ReportOpen, report.Status)
	assert.Equal(t, models.ActionNone, report.ActionTaken)
	assert.Equal(t, parent.UserID, report.ReporterID)
	require.NotNil(t, report.Details)
	assert.Equal(t, "missed sessions", *report.Details)

	_, err = env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: "nobody"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID, Reason: "rude"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = env.reports.Create(ctx, models.Identity{}, CreateReportInput{PsychologistID: psychID})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = env.reports.Create(ctx, parent, CreateReportInput{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestReportRevocationSticksAfterResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	report, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID, Reason: "misconduct"})
	require.NoError(t, err)

	report, err = env.reports.SetAction(ctx, admin, report.ID, "verification_revoked")
	require.NoError(t, err)
	assert.Equal(t, models.ActionVerificationRevoked, report.ActionTaken)
	assert.Equal(t, models.VerificationRejected, psychologistStatus(t, env, psychID))

	report, err = env.reports.SetStatus(ctx, admin, report.ID, "resolved")
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, report.Status)
	assert.Equal(t, models.VerificationRejected, psychologistStatus(t, env, psychID))

	listed, err := env.directory.Psychologists(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestReportClearingActionDoesNotReinstate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	report, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID})
	require.NoError(t, err)

	report, err = env.reports.SetAction(ctx, admin, report.ID, "temporary_suspension")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationSuspended, psychologistStatus(t, env, psychID))

	report, err = env.reports.SetAction(ctx, admin, report.ID, "none")
	require.NoError(t, err)
	assert.Equal(t, models.ActionNone, report.ActionTaken)
	assert.Equal(t, models.VerificationSuspended, psychologistStatus(t, env, psychID))

	p, err := env.store.GetPsychologist(ctx, psychID)
	require.NoError(t, err)
	assert.False(t, p.IsVerified)
}

func TestReportSuspensionNeverLowersRevocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	first, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID})
	require.NoError(t, err)
	second, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID})
	require.NoError(t, err)

	_, err = env.reports.SetAction(ctx, admin, first.ID, "verification_revoked")
	require.NoError(t, err)
	_, err = env.reports.SetAction(ctx, admin, second.ID, "temporary_suspension")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, psychologistStatus(t, env, psychID))

	// Only an explicit admin decision reinstates.
	p, err := env.verification.SetPsychologistStatus(ctx, admin, psychID, "verified")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, p.VerificationStatus)
	assert.True(t, p.IsVerified)
}

func TestReportStatusIsUnordered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	report, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID})
	require.NoError(t, err)

	for _, status := range []string{"dismissed", "open", "resolved", "under_review", "open"} {
		report, err = env.reports.SetStatus(ctx, admin, report.ID, status)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatus(status), report.Status)
	}
	assert.Equal(t, models.VerificationVerified, psychologistStatus(t, env, psychID))
}

func TestReportUpdateRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	report, err := env.reports.Create(ctx, parent, CreateReportInput{PsychologistID: psychID})
	require.NoError(t, err)

	_, err = env.reports.SetAction(ctx, parent, report.ID, "warning")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = env.reports.SetAction(ctx, admin, "missing", "warning")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = env.reports.SetAction(ctx, admin, report.ID, "ban")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = env.reports.Update(ctx, admin, report.ID, UpdateReportInput{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	stale := report.Version + 1
	_, err = env.reports.Update(ctx, admin, report.ID, UpdateReportInput{Status: strPtr("resolved"), Version: &stale})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// Status and action land together, and the action still reaches the profile.
	report, err = env.reports.Update(ctx, admin, report.ID, UpdateReportInput{
		Status:      strPtr("resolved"),
		ActionTaken: strPtr("temporary_suspension"),
		Version:     &report.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, report.Status)
	assert.Equal(t, models.ActionTemporarySuspension, report.ActionTaken)
	assert.Equal(t, models.VerificationSuspended, psychologistStatus(t, env, psychID))

	assert.Contains(t, env.audit.actions("psychologist"), "set_verification_status:verified->suspended")
	assert.Contains(t, env.audit.actions("report"), "set_status:open->resolved")
}

func TestReportActionRollsBackWhenProfileMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report := models.NewProfessionalReport("report-1", parent.UserID, "gone", models.ReasonOther, nil, time.Now().UTC())
	require.NoError(t, env.store.CreateReport(ctx, report))

	_, err := env.reports.SetAction(ctx, admin, report.ID, "temporary_suspension")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	stored, err := env.store.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionNone, stored.ActionTaken)
}
