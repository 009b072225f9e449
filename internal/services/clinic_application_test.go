package services

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

func clinicSubmission() models.ClinicApplicationSubmission {
	return models.ClinicApplicationSubmission{
		ClinicName:   "Sunrise Child Clinic",
		Country:      "PT",
		ContactEmail: "Admin@Sunrise.example",
	}
}

func inviteToken(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestClinicApplicationSubmitStoresDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.clinics.Submit(ctx, clinicSubmission(), pdfUpload(t))
	require.NoError(t, err)
	assert.Equal(t, models.ClinicPending, app.Status)
	assert.True(t, app.HasDocument)
	assert.False(t, app.SubmittedAt.IsZero())
	assert.True(t, strings.HasPrefix(app.DocumentKey, "clinic-applications/"+app.ID+"/"))
	assert.True(t, strings.HasSuffix(app.DocumentKey, ".pdf"))
	assert.Contains(t, env.documents.objects, app.DocumentKey)

	doc, err := env.clinics.DocumentURL(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 300, doc.ExpiresInSeconds)
	assert.Contains(t, doc.URL, app.DocumentKey)

	_, err = env.clinics.DocumentURL(ctx, parent, app.ID)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestClinicApplicationSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sub := clinicSubmission()
	sub.ContactEmail = "nope"
	_, err := env.clinics.Submit(ctx, sub, pdfUpload(t))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	sub = clinicSubmission()
	sub.Country = ""
	_, err = env.clinics.Submit(ctx, sub, pdfUpload(t))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = env.clinics.Submit(ctx, clinicSubmission(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	text := []byte("just some text, not a document")
	_, err = NewUpload("notes.txt", int64(len(text)), bytes.NewReader(text))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = NewUpload("huge.pdf", MaxDocumentSize+1, bytes.NewReader([]byte("%PDF-1.4")))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	apps, err := env.clinics.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestClinicApplicationApprovalIssuesInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.clinics.Submit(ctx, clinicSubmission(), pdfUpload(t))
	require.NoError(t, err)

	app, err = env.clinics.Review(ctx, admin, app.ID, ReviewInput{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, models.ClinicApproved, app.Status)
	assert.False(t, app.AccountCreated)
	require.NotNil(t, app.InviteLink)
	assert.True(t, strings.HasPrefix(*app.InviteLink, "https://app.test/clinic-invite?token="))
	require.NotNil(t, app.ClinicID)

	clinic, err := env.store.GetClinic(ctx, *app.ClinicID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, clinic.VerificationStatus)
	assert.Equal(t, "Sunrise Child Clinic", clinic.Name)

	listed, err := env.directory.Clinics(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	assert.Equal(t, []models.ClinicApplicationStatus{models.ClinicApproved}, env.notifier.clinic)

	_, err = env.clinics.Review(ctx, admin, app.ID, ReviewInput{Status: "rejected"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))
}

func TestClinicApplicationRejection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.clinics.Submit(ctx, clinicSubmission(), pdfUpload(t))
	require.NoError(t, err)

	app, err = env.clinics.Review(ctx, admin, app.ID, ReviewInput{Status: "rejected", RejectionReason: strPtr("License not legible")})
	require.NoError(t, err)
	assert.Equal(t, models.ClinicRejected, app.Status)
	assert.Nil(t, app.InviteLink)
	assert.Nil(t, app.ClinicID)
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, "License not legible", *app.RejectionReason)

	clinics, err := env.store.ListClinics(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, clinics)
	assert.Empty(t, env.redis.Keys())
}

func TestClinicInviteRedeemsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.clinics.Submit(ctx, clinicSubmission(), pdfUpload(t))
	require.NoError(t, err)
	app, err = env.clinics.Review(ctx, admin, app.ID, ReviewInput{Status: "approved"})
	require.NoError(t, err)
	token := inviteToken(t, *app.InviteLink)

	_, err = env.clinics.RedeemInvite(ctx, token, "short")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = env.clinics.RedeemInvite(ctx, "forged", "long-enough-password")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrExpiredToken))

	user, err := env.clinics.RedeemInvite(ctx, token, "long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClinicAdmin, user.Role)
	assert.Equal(t, "admin@sunrise.example", user.Email)
	require.NotNil(t, user.ClinicID)
	assert.Equal(t, *app.ClinicID, *user.ClinicID)

	stored, err := env.clinics.Get(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.True(t, stored.AccountCreated)
	assert.Nil(t, stored.InviteLink)

	_, err = env.clinics.RedeemInvite(ctx, token, "long-enough-password")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrExpiredToken))

	session, err := env.auth.SignIn(ctx, SignInInput{Email: "admin@sunrise.example", Password: "long-enough-password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleClinicAdmin, session.User.Role)
}

func TestClinicInviteExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.clinics.Submit(ctx, clinicSubmission(), pdfUpload(t))
	require.NoError(t, err)
	app, err = env.clinics.Review(ctx, admin, app.ID, ReviewInput{Status: "approved"})
	require.NoError(t, err)
	token := inviteToken(t, *app.InviteLink)
	require.NotNil(t, app.InviteExpiresAt)
	assert.WithinDuration(t, env.clinics.now().Add(7*24*time.Hour), *app.InviteExpiresAt, time.Minute)

	env.redis.FastForward(8 * 24 * time.Hour)
	later := env.clinics.now().Add(8 * 24 * time.Hour)
	env.clinics.now = func() time.Time { return later }

	_, err = env.clinics.RedeemInvite(ctx, token, "long-enough-password")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrExpiredToken))

	// The admin view stops offering a link nobody can redeem.
	stale, err := env.clinics.Get(ctx, admin, app.ID)
	require.NoError(t, err)
	assert.Nil(t, stale.InviteLink)
	assert.Nil(t, stale.InviteExpiresAt)
	assert.False(t, stale.AccountCreated)

	listed, err := env.clinics.List(ctx, admin, "approved")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Nil(t, listed[0].InviteLink)
}

func TestClinicDocumentURLMissingDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := models.NewClinicApplication("clinic-app-1", clinicSubmission(), "", env.clinics.now())
	require.NoError(t, env.store.CreateClinicApplication(ctx, app))

	_, err := env.clinics.DocumentURL(ctx, admin, app.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestClinicStatusControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app, err := env.clinics.Submit(ctx, clinicSubmission(), pdfUpload(t))
	require.NoError(t, err)
	app, err = env.clinics.Review(ctx, admin, app.ID, ReviewInput{Status: "approved"})
	require.NoError(t, err)

	clinic, err := env.verification.SetClinicStatus(ctx, admin, *app.ClinicID, "suspended")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationSuspended, clinic.VerificationStatus)

	listed, err := env.directory.Clinics(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = env.verification.SetClinicStatus(ctx, admin, *app.ClinicID, "paused")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = env.verification.SetClinicStatus(ctx, parent, *app.ClinicID, "verified")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}
