package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

func TestTherapistApplicationSubmitMovesDraftToPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine, err := env.therapists.Mine(ctx, therapist)
	require.NoError(t, err)
	assert.Nil(t, mine)

	app, err := env.therapists.Upsert(ctx, therapist, models.TherapistApplicationDraft{
		ProfessionalName: strPtr("Dr. Rivera"),
		Email:            strPtr("rivera@example.com"),
		Languages:        &[]string{"en", "es"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TherapistDraft, app.Status)
	assert.Nil(t, app.SubmittedAt)

	app, err = env.therapists.Submit(ctx, therapist)
	require.NoError(t, err)
	assert.Equal(t, models.TherapistPending, app.Status)
	require.NotNil(t, app.SubmittedAt)

	_, err = env.therapists.Submit(ctx, therapist)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition), "got %v", err)

	_, err = env.therapists.Upsert(ctx, therapist, models.TherapistApplicationDraft{Bio: strPtr("late edit")})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition), "got %v", err)

	assert.Equal(t, []string{"submit:draft->pending"}, env.audit.actions("therapist_application"))
}

func TestTherapistApplicationSubmitRequiresNameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.therapists.Upsert(ctx, therapist, models.TherapistApplicationDraft{ProfessionalName: strPtr("Dr. Rivera")})
	require.NoError(t, err)

	_, err = env.therapists.Submit(ctx, therapist)
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "got %v", err)

	app, err := env.therapists.Mine(ctx, therapist)
	require.NoError(t, err)
	assert.Equal(t, models.TherapistDraft, app.Status)
}

func TestTherapistApplicationUpsertValidatesFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.therapists.Upsert(context.Background(), therapist, models.TherapistApplicationDraft{Email: strPtr("not-an-email")})
	require.Error(t, err)
	appErr := apperrors.From(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "email")
}

func TestTherapistApplicationRequiresTherapistRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.therapists.Upsert(ctx, parent, models.TherapistApplicationDraft{})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = env.therapists.Mine(ctx, models.Identity{})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestTherapistApplicationRejectionKeepsProfileUnset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.therapists.Upsert(ctx, therapist, models.TherapistApplicationDraft{
		ProfessionalName: strPtr("Dr. Rivera"),
		Email:            strPtr("rivera@example.com"),
	})
	require.NoError(t, err)
	app, err := env.therapists.Submit(ctx, therapist)
	require.NoError(t, err)

	app, err = env.therapists.Review(ctx, admin, app.ID, ReviewInput{Status: "rejected", RejectionReason: strPtr("Incomplete credentials")})
	require.NoError(t, err)
	assert.Equal(t, models.TherapistRejected, app.Status)
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, "Incomplete credentials", *app.RejectionReason)
	assert.Nil(t, app.PsychologistID)
	assert.NotNil(t, app.ReviewedAt)

	list, err := env.store.ListPsychologists(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, []models.TherapistApplicationStatus{models.TherapistRejected}, env.notifier.therapist)

	// Editing a rejected application reopens it for another submission.
	app, err = env.therapists.Upsert(ctx, therapist, models.TherapistApplicationDraft{Bio: strPtr("Added license scan")})
	require.NoError(t, err)
	assert.Equal(t, models.TherapistDraft, app.Status)
	assert.Nil(t, app.RejectionReason)

	app, err = env.therapists.Submit(ctx, therapist)
	require.NoError(t, err)
	assert.Equal(t, models.TherapistPending, app.Status)
}

func TestTherapistApplicationApprovalCreatesVerifiedPsychologist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Prime the directory cache so the approval has something to invalidate.
	listed, err := env.directory.Psychologists(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")

	p, err := env.store.GetPsychologist(ctx, psychID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, p.VerificationStatus)
	assert.True(t, p.IsVerified)
	assert.Equal(t, therapist.UserID, p.UserID)
	assert.Equal(t, "Dr. Rivera", p.DisplayName)

	listed, err = env.directory.Psychologists(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, psychID, listed[0].ID)

	assert.Equal(t, []models.TherapistApplicationStatus{models.TherapistApproved}, env.notifier.therapist)
}

func TestTherapistApplicationReviewRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.therapists.Upsert(ctx, therapist, models.TherapistApplicationDraft{
		ProfessionalName: strPtr("Dr. Rivera"),
		Email:            strPtr("rivera@example.com"),
	})
	require.NoError(t, err)
	draft, err := env.therapists.Mine(ctx, therapist)
	require.NoError(t, err)

	_, err = env.therapists.Review(ctx, admin, draft.ID, ReviewInput{Status: "approved"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition), "draft cannot be reviewed: %v", err)

	app, err := env.therapists.Submit(ctx, therapist)
	require.NoError(t, err)

	_, err = env.therapists.Review(ctx, admin, app.ID, ReviewInput{Status: "pending"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "got %v", err)

	_, err = env.therapists.Review(ctx, therapist, app.ID, ReviewInput{Status: "approved"})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	stale := app.Version - 1
	_, err = env.therapists.Review(ctx, admin, app.ID, ReviewInput{Status: "approved", Version: &stale})
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "got %v", err)

	_, err = env.therapists.Review(ctx, admin, "missing", ReviewInput{Status: "approved"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	current := app.Version
	app, err = env.therapists.Review(ctx, admin, app.ID, ReviewInput{Status: "approved", Version: &current})
	require.NoError(t, err)
	assert.Equal(t, models.TherapistApproved, app.Status)

	_, err = env.therapists.Review(ctx, admin, app.ID, ReviewInput{Status: "rejected"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))

	list, err := env.store.ListPsychologists(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 1, "a profile is created exactly once")
}

func TestTherapistApplicationReviewSurvivesNotifierFailure(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("ses unavailable")

	psychID := env.approvedPsychologist(t, therapist, "Dr. Rivera")
	assert.NotEmpty(t, psychID)
}

func TestTherapistApplicationListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.approvedPsychologist(t, therapist, "Dr. Rivera")
	other := models.Identity{UserID: "therapist-2", Role: models.RoleTherapist}
	_, err := env.therapists.Upsert(ctx, other, models.TherapistApplicationDraft{ProfessionalName: strPtr("Dr. Okafor")})
	require.NoError(t, err)

	all, err := env.therapists.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := env.therapists.List(ctx, admin, "draft")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Dr. Okafor", drafts[0].ProfessionalName)

	_, err = env.therapists.List(ctx, admin, "archived")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestTherapistCredentialUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	url, err := env.therapists.UploadCredential(ctx, therapist, pdfUpload(t))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/therapist-credentials/therapist-1/license.pdf", url)

	_, err = env.therapists.UploadCredential(ctx, parent, pdfUpload(t))
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}
