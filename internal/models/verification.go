package models

import (
	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

// VerificationStatus is the trust flag of an approved psychologist or clinic profile.
// "rejected" here means revoked after approval, not a rejected application.
type VerificationStatus string

const (
	VerificationVerified  VerificationStatus = "verified"
	VerificationSuspended VerificationStatus = "suspended"
	VerificationRejected  VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationVerified, VerificationSuspended, VerificationRejected:
		return true
	}
	return false
}

// Listed reports whether a profile with this status appears in the public directory.
func (s VerificationStatus) Listed() bool {
	return s == VerificationVerified
}

// severity orders statuses from least to most restrictive.
func (s VerificationStatus) severity() int {
	switch s {
	case VerificationVerified:
		return 0
	case VerificationSuspended:
		return 1
	case VerificationRejected:
		return 2
	}
	return -1
}

// ParseVerificationStatus accepts the wire value. "active" is what the admin status endpoint sends
// for a reinstated profile and maps to verified.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	if s == "active" {
		return VerificationVerified, nil
	}
	v := VerificationStatus(s)
	if !v.Valid() {
		return "", apperrors.InvalidInput("status", s)
	}
	return v, nil
}

// VerificationCause records why a verification status changed.
type VerificationCause string

const (
	CauseAdminManual  VerificationCause = "admin_manual"
	CauseReportAction VerificationCause = "report_action"
	CauseApproval     VerificationCause = "application_approved"
)

func (c VerificationCause) Valid() bool {
	switch c {
	case CauseAdminManual, CauseReportAction, CauseApproval:
		return true
	}
	return false
}

// ProfileKind names the profile a verification status is attached to.
type ProfileKind string

const (
	ProfilePsychologist ProfileKind = "psychologist"
	ProfileClinic       ProfileKind = "clinic"
)

func (k ProfileKind) Valid() bool {
	return k == ProfilePsychologist || k == ProfileClinic
}

// NextVerificationStatus decides the status a profile ends up in when `to` is requested for
// `cause`. Manual changes are unrestricted. Approval only ever yields verified. Report actions may
// only restrict a profile and never lower the severity it already has, so a revoked profile stays
// revoked when a later report asks for a suspension.
func NextVerificationStatus(from, to VerificationStatus, cause VerificationCause) (VerificationStatus, error) {
	if !to.Valid() {
		return "", apperrors.InvalidInput("status", string(to))
	}
	switch cause {
	case CauseAdminManual:
		return to, nil
	case CauseApproval:
		if to != VerificationVerified {
			return "", apperrors.InvalidTransition("verification", "approve to "+string(to), string(from))
		}
		return to, nil
	case CauseReportAction:
		if to == VerificationVerified {
			return "", apperrors.InvalidTransition("verification", "reinstate through a report action", string(from))
		}
		if from.severity() > to.severity() {
			return from, nil
		}
		return to, nil
	default:
		return "", apperrors.InvalidInput("cause", string(cause))
	}
}
