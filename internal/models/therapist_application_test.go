package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func completeDraft() *TherapistApplication {
	a := NewTherapistApplication("app-1", "user-1", now)
	_ = a.ApplyDraft(TherapistApplicationDraft{
		ProfessionalName: strPtr("Dr. Ana Ruiz"),
		Email:            strPtr("ana@example.com"),
	}, now)
	return a
}

func TestTherapistSubmitFromDraft(t *testing.T) {
	a := completeDraft()
	later := now.Add(time.Hour)

	require.NoError(t, a.Submit(later))
	assert.Equal(t, TherapistPending, a.Status)
	require.NotNil(t, a.SubmittedAt)
	assert.Equal(t, later, *a.SubmittedAt)
	assert.Nil(t, a.PsychologistID)
	assert.Nil(t, a.RejectionReason)
}

func TestTherapistSubmitRequiresNameAndEmail(t *testing.T) {
	cases := map[string]TherapistApplicationDraft{
		"no name":     {Email: strPtr("ana@example.com")},
		"no email":    {ProfessionalName: strPtr("Ana")},
		"blank name":  {ProfessionalName: strPtr("   "), Email: strPtr("ana@example.com")},
		"blank email": {ProfessionalName: strPtr("Ana"), Email: strPtr(" ")},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewTherapistApplication("app-1", "user-1", now)
			require.NoError(t, a.ApplyDraft(d, now))
			err := a.Submit(now)
			assert.True(t, errors.Is(err, apperrors.ErrValidation), "got %v", err)
			assert.Equal(t, TherapistDraft, a.Status)
			assert.Nil(t, a.SubmittedAt)
		})
	}
}

func TestTherapistSubmitOutsideDraft(t *testing.T) {
	for _, status := range []TherapistApplicationStatus{TherapistPending, TherapistApproved, TherapistRejected} {
		a := completeDraft()
		a.Status = status
		err := a.Submit(now)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition), "status %s: got %v", status, err)
	}
}

func TestTherapistApproveSetsPsychologist(t *testing.T) {
	a := completeDraft()
	require.NoError(t, a.Submit(now))

	require.NoError(t, a.Review(DecisionApproved, nil, "psy-1", now))
	assert.Equal(t, TherapistApproved, a.Status)
	require.NotNil(t, a.PsychologistID)
	assert.Equal(t, "psy-1", *a.PsychologistID)
	require.NotNil(t, a.ReviewedAt)
}

func TestTherapistRejectRecordsReason(t *testing.T) {
	a := completeDraft()
	require.NoError(t, a.Submit(now))

	require.NoError(t, a.Review(DecisionRejected, strPtr("Incomplete credentials"), "", now))
	assert.Equal(t, TherapistRejected, a.Status)
	require.NotNil(t, a.RejectionReason)
	assert.Equal(t, "Incomplete credentials", *a.RejectionReason)
	assert.Nil(t, a.PsychologistID)
	assert.NotNil(t, a.ReviewedAt)
}

func TestTherapistReviewIsNotReenterable(t *testing.T) {
	approved := completeDraft()
	require.NoError(t, approved.Submit(now))
	require.NoError(t, approved.Review(DecisionApproved, nil, "psy-1", now))

	rejected := completeDraft()
	require.NoError(t, rejected.Submit(now))
	require.NoError(t, rejected.Review(DecisionRejected, nil, "", now))

	for _, a := range []*TherapistApplication{approved, rejected} {
		err := a.Review(DecisionApproved, nil, "psy-2", now)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))
	}
	assert.Equal(t, "psy-1", *approved.PsychologistID)
	assert.Nil(t, rejected.PsychologistID)
}

func TestTherapistReviewDraftFails(t *testing.T) {
	a := completeDraft()
	err := a.Review(DecisionApproved, nil, "psy-1", now)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))
}

func TestParseReviewDecision(t *testing.T) {
	d, err := ParseReviewDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, d)

	for _, bad := range []string{"", "Approved", "pending", "draft"} {
		_, err := ParseReviewDecision(bad)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), bad)
	}
}

func TestApplyDraftMergesOnlySuppliedFields(t *testing.T) {
	a := completeDraft()
	langs := []string{"es", "en"}
	require.NoError(t, a.ApplyDraft(TherapistApplicationDraft{Languages: &langs, Bio: strPtr("Child psychologist")}, now))

	assert.Equal(t, "Dr. Ana Ruiz", a.ProfessionalName)
	assert.Equal(t, "ana@example.com", a.Email)
	assert.Equal(t, langs, a.Languages)
	assert.Equal(t, "Child psychologist", *a.Bio)
	assert.Equal(t, TherapistDraft, a.Status)
}

func TestApplyDraftLockedWhilePendingOrApproved(t *testing.T) {
	a := completeDraft()
	require.NoError(t, a.Submit(now))

	err := a.ApplyDraft(TherapistApplicationDraft{Bio: strPtr("x")}, now)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))

	require.NoError(t, a.Review(DecisionApproved, nil, "psy-1", now))
	err = a.ApplyDraft(TherapistApplicationDraft{Bio: strPtr("x")}, now)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStateTransition))
}

func TestApplyDraftReopensRejected(t *testing.T) {
	a := completeDraft()
	require.NoError(t, a.Submit(now))
	require.NoError(t, a.Review(DecisionRejected, strPtr("Missing license"), "", now))

	require.NoError(t, a.ApplyDraft(TherapistApplicationDraft{Phone: strPtr("+34 600 000 000")}, now))
	assert.Equal(t, TherapistDraft, a.Status)
	assert.Nil(t, a.RejectionReason)
	assert.Nil(t, a.ReviewedAt)

	require.NoError(t, a.Submit(now))
	assert.Equal(t, TherapistPending, a.Status)
}
