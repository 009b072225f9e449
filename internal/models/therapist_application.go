package models

import (
	"strings"
	"time"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

type TherapistApplicationStatus string

const (
	TherapistDraft    TherapistApplicationStatus = "draft"
	TherapistPending  TherapistApplicationStatus = "pending"
	TherapistApproved TherapistApplicationStatus = "approved"
	TherapistRejected TherapistApplicationStatus = "rejected"
)

func (s TherapistApplicationStatus) Valid() bool {
	switch s {
	case TherapistDraft, TherapistPending, TherapistApproved, TherapistRejected:
		return true
	}
	return false
}

func ParseTherapistApplicationStatus(s string) (TherapistApplicationStatus, error) {
	v := TherapistApplicationStatus(s)
	if !v.Valid() {
		return "", apperrors.InvalidInput("status", s)
	}
	return v, nil
}

// ReviewDecision is the outcome an admin picks for a pending application.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

func ParseReviewDecision(s string) (ReviewDecision, error) {
	switch d := ReviewDecision(s); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	}
	return "", apperrors.InvalidInput("status", s)
}

type Credential struct {
	Type        string  `json:"type" validate:"required,max=100"`
	Issuer      *string `json:"issuer,omitempty" validate:"omitempty,max=200"`
	Number      *string `json:"number,omitempty" validate:"omitempty,max=100"`
	DocumentURL *string `json:"document_url,omitempty" validate:"omitempty,url"`
	Verified    *bool   `json:"verified,omitempty"`
}

type ClinicAffiliation struct {
	ClinicID  string  `json:"clinic_id" validate:"required"`
	RoleLabel *string `json:"role_label,omitempty" validate:"omitempty,max=100"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

type TherapistApplication struct {
	ID                 string                     `json:"id"`
	UserID             string                     `json:"user_id"`
	ProfessionalName   string                     `json:"professional_name"`
	Email              string                     `json:"email"`
	Phone              *string                    `json:"phone,omitempty"`
	Specialty          *string                    `json:"specialty,omitempty"`
	Specialization     []string                   `json:"specialization"`
	Bio                *string                    `json:"bio,omitempty"`
	Location           *string                    `json:"location,omitempty"`
	Languages          []string                   `json:"languages"`
	Credentials        []Credential               `json:"credentials"`
	ClinicAffiliations []ClinicAffiliation        `json:"clinic_affiliations"`
	Status             TherapistApplicationStatus `json:"status"`
	SubmittedAt        *time.Time                 `json:"submitted_at,omitempty"`
	ReviewedAt         *time.Time                 `json:"reviewed_at,omitempty"`
	RejectionReason    *string                    `json:"rejection_reason,omitempty"`
	PsychologistID     *string                    `json:"psychologist_id,omitempty"`
	Version            int64                      `json:"version"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// TherapistApplicationDraft is a partial edit. Nil fields are left untouched.
type TherapistApplicationDraft struct {
	ProfessionalName   *string              `json:"professional_name,omitempty" validate:"omitempty,max=200"`
	Email              *string              `json:"email,omitempty" validate:"omitempty,email"`
	Phone              *string              `json:"phone,omitempty" validate:"omitempty,max=40"`
	Specialty          *string              `json:"specialty,omitempty" validate:"omitempty,max=200"`
	Specialization     *[]string            `json:"specialization,omitempty" validate:"omitempty,dive,max=100"`
	Bio                *string              `json:"bio,omitempty" validate:"omitempty,max=4000"`
	Location           *string              `json:"location,omitempty" validate:"omitempty,max=200"`
	Languages          *[]string            `json:"languages,omitempty" validate:"omitempty,dive,max=60"`
	Credentials        *[]Credential        `json:"credentials,omitempty" validate:"omitempty,dive"`
	ClinicAffiliations *[]ClinicAffiliation `json:"clinic_affiliations,omitempty" validate:"omitempty,dive"`
}

// NewTherapistApplication starts an empty application in draft.
func NewTherapistApplication(id, userID string, now time.Time) *TherapistApplication {
	return &TherapistApplication{
		ID:                 id,
		UserID:             userID,
		Specialization:     []string{},
		Languages:          []string{},
		Credentials:        []Credential{},
		ClinicAffiliations: []ClinicAffiliation{},
		Status:             TherapistDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Editable reports whether the applicant may still change the application.
func (a *TherapistApplication) Editable() bool {
	return a.Status == TherapistDraft || a.Status == TherapistRejected
}

// ApplyDraft merges the supplied fields. Editing a rejected application reopens it as a draft
// so it can be submitted again.
func (a *TherapistApplication) ApplyDraft(d TherapistApplicationDraft, now time.Time) error {
	if !a.Editable() {
		return apperrors.InvalidTransition("therapist application", "edit", string(a.Status))
	}
	if a.Status == TherapistRejected {
		a.Status = TherapistDraft
		a.RejectionReason = nil
		a.ReviewedAt = nil
	}

	if d.ProfessionalName != nil {
		a.ProfessionalName = strings.TrimSpace(*d.ProfessionalName)
	}
	if d.Email != nil {
		a.Email = strings.TrimSpace(*d.Email)
	}
	if d.Phone != nil {
		a.Phone = d.Phone
	}
	if d.Specialty != nil {
		a.Specialty = d.Specialty
	}
	if d.Specialization != nil {
		a.Specialization = *d.Specialization
	}
	if d.Bio != nil {
		a.Bio = d.Bio
	}
	if d.Location != nil {
		a.Location = d.Location
	}
	if d.Languages != nil {
		a.Languages = *d.Languages
	}
	if d.Credentials != nil {
		a.Credentials = *d.Credentials
	}
	if d.ClinicAffiliations != nil {
		a.ClinicAffiliations = *d.ClinicAffiliations
	}
	a.UpdatedAt = now
	return nil
}

// Submit moves a complete draft into the review queue.
func (a *TherapistApplication) Submit(now time.Time) error {
	if a.Status != TherapistDraft {
		return apperrors.InvalidTransition("therapist application", "submit", string(a.Status))
	}
	if strings.TrimSpace(a.ProfessionalName) == "" || strings.TrimSpace(a.Email) == "" {
		return apperrors.Validation("professional name and email are required before submitting")
	}
	a.Status = TherapistPending
	a.SubmittedAt = &now
	a.UpdatedAt = now
	return nil
}

// Review records an admin decision. psychologistID is the profile created for an approval and is
// ignored for a rejection.
func (a *TherapistApplication) Review(decision ReviewDecision, reason *string, psychologistID string, now time.Time) error {
	if a.Status != TherapistPending {
		return apperrors.InvalidTransition("therapist application", "review", string(a.Status))
	}
	switch decision {
	case DecisionApproved:
		if psychologistID == "" {
			return apperrors.Validation("approval requires a psychologist profile")
		}
		a.Status = TherapistApproved
		a.PsychologistID = &psychologistID
		a.RejectionReason = nil
	case DecisionRejected:
		a.Status = TherapistRejected
		a.RejectionReason = trimmedOrNil(reason)
	default:
		return apperrors.InvalidInput("status", string(decision))
	}
	a.ReviewedAt = &now
	a.UpdatedAt = now
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
