package models

import (
	"time"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

type ReportReason string

const (
	ReasonMisconduct            ReportReason = "misconduct"
	ReasonInaccurateInfo        ReportReason = "inaccurate_info"
	ReasonInappropriateBehavior ReportReason = "inappropriate_behavior"
	ReasonOther                 ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonMisconduct, ReasonInaccurateInfo, ReasonInappropriateBehavior, ReasonOther:
		return true
	}
	return false
}

// ParseReportReason treats an empty reason as "other".
func ParseReportReason(s string) (ReportReason, error) {
	if s == "" {
		return ReasonOther, nil
	}
	v := ReportReason(s)
	if !v.Valid() {
		return "", apperrors.InvalidInput("reason", s)
	}
	return v, nil
}

// ReportStatus has no ordering; admins may move a report between any two values.
type ReportStatus string

const (
	ReportOpen        ReportStatus = "open"
	ReportUnderReview ReportStatus = "under_review"
	ReportResolved    ReportStatus = "resolved"
	ReportDismissed   ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportOpen, ReportUnderReview, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

func ParseReportStatus(s string) (ReportStatus, error) {
	v := ReportStatus(s)
	if !v.Valid() {
		return "", apperrors.InvalidInput("status", s)
	}
	return v, nil
}

type ReportAction string

const (
	ActionNone                ReportAction = "none"
	ActionWarning             ReportAction = "warning"
	ActionTemporarySuspension ReportAction = "temporary_suspension"
	ActionVerificationRevoked ReportAction = "verification_revoked"
)

func (a ReportAction) Valid() bool {
	switch a {
	case ActionNone, ActionWarning, ActionTemporarySuspension, ActionVerificationRevoked:
		return true
	}
	return false
}

func ParseReportAction(s string) (ReportAction, error) {
	v := ReportAction(s)
	if !v.Valid() {
		return "", apperrors.InvalidInput("action_taken", s)
	}
	return v, nil
}

// VerificationEffect is the verification status an action forces on the reported psychologist.
// ok is false for actions that leave verification alone, including "none": clearing an action
// never reinstates a profile.
func (a ReportAction) VerificationEffect() (status VerificationStatus, ok bool) {
	switch a {
	case ActionTemporarySuspension:
		return VerificationSuspended, true
	case ActionVerificationRevoked:
		return VerificationRejected, true
	}
	return "", false
}

type ProfessionalReport struct {
	ID             string       `json:"id"`
	ReporterID     string       `json:"reporter_id"`
	PsychologistID string       `json:"psychologist_id"`
	Reason         ReportReason `json:"reason"`
	Details        *string      `json:"details,omitempty"`
	Status         ReportStatus `json:"status"`
	ActionTaken    ReportAction `json:"action_taken"`
	Version        int64        `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func NewProfessionalReport(id, reporterID, psychologistID string, reason ReportReason, details *string, now time.Time) *ProfessionalReport {
	return &ProfessionalReport{
		ID:             id,
		ReporterID:     reporterID,
		PsychologistID: psychologistID,
		Reason:         reason,
		Details:        trimmedOrNil(details),
		Status:         ReportOpen,
		ActionTaken:    ActionNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (r *ProfessionalReport) SetStatus(s ReportStatus, now time.Time) error {
	if !s.Valid() {
		return apperrors.InvalidInput("status", string(s))
	}
	r.Status = s
	r.UpdatedAt = now
	return nil
}

// SetAction records the enforcement action and returns the verification change it implies.
func (r *ProfessionalReport) SetAction(a ReportAction, now time.Time) (VerificationStatus, bool, error) {
	if !a.Valid() {
		return "", false, apperrors.InvalidInput("action_taken", string(a))
	}
	r.ActionTaken = a
	r.UpdatedAt = now
	status, ok := a.VerificationEffect()
	return status, ok, nil
}
