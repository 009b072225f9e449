package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
)

// VerificationChange describes what a verification request did to a profile.
type VerificationChange struct {
	Kind    models.ProfileKind
	ID      string
	ActorID string
	From    models.VerificationStatus
	To      models.VerificationStatus
	Cause   models.VerificationCause
}

func (c VerificationChange) Changed() bool {
	return c.From != c.To
}

// VerificationService owns the verification status of psychologist and clinic profiles.
type VerificationService struct {
	store repository.Store
	cache *CacheService
	audit AuditRecorder
	log   logger.Logger
	now   func() time.Time
}

func NewVerificationService(store repository.Store, cache *CacheService, audit AuditRecorder, log logger.Logger) *VerificationService {
	return &VerificationService{
		store: store,
		cache: cache,
		audit: audit,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func requireAdmin(identity models.Identity) error {
	if !identity.Authenticated() {
		return apperrors.Unauthorized("sign in to continue")
	}
	if !identity.IsAdmin() {
		return apperrors.Forbidden("only platform admins can moderate")
	}
	return nil
}

// SetPsychologistStatus is the admin's direct status control. Any of the three statuses may be
// chosen, including reinstating a revoked profile.
func (s *VerificationService) SetPsychologistStatus(ctx context.Context, actor models.Identity, id, status string) (*models.Psychologist, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	to, err := models.ParseVerificationStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		profile *models.Psychologist
		change  VerificationChange
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		profile, change, err = s.applyPsychologist(ctx, tx, actor.UserID, id, to, models.CauseAdminManual)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, change)
	return profile, nil
}

// SetPsychologistVerified maps the is_verified toggle onto a status: true verifies, false
// suspends.
func (s *VerificationService) SetPsychologistVerified(ctx context.Context, actor models.Identity, id string, verified bool) (*models.Psychologist, error) {
	status := models.VerificationSuspended
	if verified {
		status = models.VerificationVerified
	}
	return s.SetPsychologistStatus(ctx, actor, id, string(status))
}

func (s *VerificationService) SetClinicStatus(ctx context.Context, actor models.Identity, id, status string) (*models.Clinic, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	to, err := models.ParseVerificationStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		clinic *models.Clinic
		change VerificationChange
	)
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		clinic, change, err = s.applyClinic(ctx, tx, actor.UserID, id, to, models.CauseAdminManual)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, change)
	return clinic, nil
}

// SetVerified marks a freshly approved profile verified inside the approval transaction tx.
// It is idempotent. The caller publishes the change after commit.
func (s *VerificationService) SetVerified(ctx context.Context, tx repository.Store, actorID string, kind models.ProfileKind, id string) (VerificationChange, error) {
	switch kind {
	case models.ProfilePsychologist:
		_, change, err := s.applyPsychologist(ctx, tx, actorID, id, models.VerificationVerified, models.CauseApproval)
		return change, err
	case models.ProfileClinic:
		_, change, err := s.applyClinic(ctx, tx, actorID, id, models.VerificationVerified, models.CauseApproval)
		return change, err
	}
	return VerificationChange{}, apperrors.InvalidInput("profile kind", string(kind))
}

// ApplyReportAction forces the status a report action implies on the reported psychologist.
// It never lowers an existing restriction.
func (s *VerificationService) ApplyReportAction(ctx context.Context, tx repository.Store, actorID, psychologistID string, to models.VerificationStatus) (VerificationChange, error) {
	_, change, err := s.applyPsychologist(ctx, tx, actorID, psychologistID, to, models.CauseReportAction)
	return change, err
}

func (s *VerificationService) applyPsychologist(ctx context.Context, tx repository.Store, actorID, id string, to models.VerificationStatus, cause models.VerificationCause) (*models.Psychologist, VerificationChange, error) {
	p, err := tx.GetPsychologist(ctx, id)
	if err != nil {
		return nil, VerificationChange{}, err
	}
	next, err := models.NextVerificationStatus(p.VerificationStatus, to, cause)
	if err != nil {
		return nil, VerificationChange{}, err
	}
	change := VerificationChange{Kind: models.ProfilePsychologist, ID: id, ActorID: actorID, From: p.VerificationStatus, To: next, Cause: cause}
	if !change.Changed() && p.IsVerified == next.Listed() {
		return p, change, nil
	}
	p.SetVerification(next, s.now())
	if err := tx.UpdatePsychologist(ctx, p); err != nil {
		return nil, VerificationChange{}, err
	}
	return p, change, nil
}

func (s *VerificationService) applyClinic(ctx context.Context, tx repository.Store, actorID, id string, to models.VerificationStatus, cause models.VerificationCause) (*models.Clinic, VerificationChange, error) {
	c, err := tx.GetClinic(ctx, id)
	if err != nil {
		return nil, VerificationChange{}, err
	}
	next, err := models.NextVerificationStatus(c.VerificationStatus, to, cause)
	if err != nil {
		return nil, VerificationChange{}, err
	}
	change := VerificationChange{Kind: models.ProfileClinic, ID: id, ActorID: actorID, From: c.VerificationStatus, To: next, Cause: cause}
	if !change.Changed() {
		return c, change, nil
	}
	c.SetVerification(next, s.now())
	if err := tx.UpdateClinic(ctx, c); err != nil {
		return nil, VerificationChange{}, err
	}
	return c, change, nil
}

// publish audits committed changes and drops the directory listings they affect.
func (s *VerificationService) publish(ctx context.Context, changes ...VerificationChange) {
	for _, c := range changes {
		if c.ID == "" {
			continue
		}
		if c.Changed() {
			recordTransition(ctx, s.audit, models.ModerationEvent{
				At:         s.now(),
				EntityType: string(c.Kind),
				EntityID:   c.ID,
				ActorID:    c.ActorID,
				Action:     "set_verification_status",
				From:       string(c.From),
				To:         string(c.To),
				Cause:      string(c.Cause),
			})
		}

		key := DirectoryPsychologistsKey
		if c.Kind == models.ProfileClinic {
			key = DirectoryClinicsKey
		}
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.WithError(err).Warn("failed to invalidate directory cache", map[string]interface{}{"key": key})
		}
	}
}
