package models

import (
	"strings"
	"time"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

type ClinicApplicationStatus string

const (
	ClinicPending  ClinicApplicationStatus = "pending"
	ClinicApproved ClinicApplicationStatus = "approved"
	ClinicRejected ClinicApplicationStatus = "rejected"
)

func (s ClinicApplicationStatus) Valid() bool {
	switch s {
	case ClinicPending, ClinicApproved, ClinicRejected:
		return true
	}
	return false
}

func ParseClinicApplicationStatus(s string) (ClinicApplicationStatus, error) {
	v := ClinicApplicationStatus(s)
	if !v.Valid() {
		return "", apperrors.InvalidInput("status", s)
	}
	return v, nil
}

type ClinicApplication struct {
	ID              string                  `json:"id"`
	ClinicName      string                  `json:"clinic_name"`
	Country         string                  `json:"country"`
	ContactEmail    string                  `json:"contact_email"`
	ContactPhone    *string                 `json:"contact_phone,omitempty"`
	Description     *string                 `json:"description,omitempty"`
	HasDocument     bool                    `json:"has_document"`
	Status          ClinicApplicationStatus `json:"status"`
	SubmittedAt     time.Time               `json:"submitted_at"`
	ReviewedAt      *time.Time              `json:"reviewed_at,omitempty"`
	RejectionReason *string                 `json:"rejection_reason,omitempty"`
	AccountCreated  bool                    `json:"account_created"`
	InviteLink      *string                 `json:"invite_link,omitempty"`
	InviteExpiresAt *time.Time              `json:"invite_expires_at,omitempty"`
	ClinicID        *string                 `json:"clinic_id,omitempty"`
	Version         int64                   `json:"version"`

	DocumentKey string `json:"-"` // object key in private storage
}

// ClinicApplicationSubmission holds the form fields of the public clinic application.
type ClinicApplicationSubmission struct {
	ClinicName   string  `json:"clinic_name" validate:"required,max=200"`
	Country      string  `json:"country" validate:"required,max=100"`
	ContactEmail string  `json:"contact_email" validate:"required,email"`
	ContactPhone *string `json:"contact_phone,omitempty" validate:"omitempty,max=40"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=4000"`
}

// NewClinicApplication creates a submitted application. Clinics have no draft stage.
func NewClinicApplication(id string, sub ClinicApplicationSubmission, documentKey string, now time.Time) *ClinicApplication {
	return &ClinicApplication{
		ID:           id,
		ClinicName:   strings.TrimSpace(sub.ClinicName),
		Country:      strings.TrimSpace(sub.Country),
		ContactEmail: strings.TrimSpace(sub.ContactEmail),
		ContactPhone: trimmedOrNil(sub.ContactPhone),
		Description:  trimmedOrNil(sub.Description),
		HasDocument:  documentKey != "",
		Status:       ClinicPending,
		SubmittedAt:  now,
		DocumentKey:  documentKey,
	}
}

// ClinicInvite is what an approval hands to the clinic: the new clinic profile and the one-time
// link to its administrator account.
type ClinicInvite struct {
	ClinicID  string
	Link      string
	ExpiresAt time.Time
}

// Review records an admin decision. An approval carries the invite.
func (c *ClinicApplication) Review(decision ReviewDecision, reason *string, invite *ClinicInvite, now time.Time) error {
	if c.Status != ClinicPending {
		return apperrors.InvalidTransition("clinic application", "review", string(c.Status))
	}
	switch decision {
	case DecisionApproved:
		if invite == nil || invite.ClinicID == "" || invite.Link == "" || !invite.ExpiresAt.After(now) {
			return apperrors.Validation("approval requires a clinic and a live invite")
		}
		clinicID, link, expires := invite.ClinicID, invite.Link, invite.ExpiresAt
		c.Status = ClinicApproved
		c.ClinicID = &clinicID
		c.InviteLink = &link
		c.InviteExpiresAt = &expires
		c.AccountCreated = false
		c.RejectionReason = nil
	case DecisionRejected:
		c.Status = ClinicRejected
		c.RejectionReason = trimmedOrNil(reason)
	default:
		return apperrors.InvalidInput("status", string(decision))
	}
	c.ReviewedAt = &now
	return nil
}

// InviteOpen reports whether the clinic invite can still be redeemed at now.
func (c *ClinicApplication) InviteOpen(now time.Time) bool {
	if c.Status != ClinicApproved || c.AccountCreated {
		return false
	}
	return c.InviteExpiresAt == nil || now.Before(*c.InviteExpiresAt)
}

// RedeemInvite marks the clinic account as created. It happens once.
func (c *ClinicApplication) RedeemInvite(now time.Time) error {
	if !c.InviteOpen(now) {
		return apperrors.InvalidOrExpiredToken()
	}
	c.AccountCreated = true
	c.InviteLink = nil
	c.InviteExpiresAt = nil
	return nil
}

// Visible returns the application as it may be shown to a caller at now. The invite link only
// surfaces while the invite is open.
func (c ClinicApplication) Visible(now time.Time) ClinicApplication {
	if !c.InviteOpen(now) {
		c.InviteLink = nil
		c.InviteExpiresAt = nil
	}
	return c
}
