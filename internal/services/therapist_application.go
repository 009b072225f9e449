package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/metrics"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
)

// ReviewInput is an admin decision on a pending application. Version, when set, must match the
// application's current version.
type ReviewInput struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	Version         *int64  `json:"version,omitempty"`
}

func checkVersion(entity string, expected *int64, actual int64) error {
	if expected != nil && *expected != actual {
		return apperrors.Conflict(entity)
	}
	return nil
}

type TherapistApplicationService struct {
	store        repository.Store
	verification *VerificationService
	uploader     CredentialUploader
	notifier     Notifier
	audit        AuditRecorder
	log          logger.Logger
	now          func() time.Time
}

func NewTherapistApplicationService(store repository.Store, verification *VerificationService, uploader CredentialUploader, notifier Notifier, audit AuditRecorder, log logger.Logger) *TherapistApplicationService {
	return &TherapistApplicationService{
		store:        store,
		verification: verification,
		uploader:     uploader,
		notifier:     notifier,
		audit:        audit,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func requireTherapist(identity models.Identity) error {
	if !identity.Authenticated() {
		return apperrors.Unauthorized("sign in to continue")
	}
	if identity.Role != models.RoleTherapist {
		return apperrors.Forbidden("only therapists can manage a therapist application")
	}
	return nil
}

// Mine returns the caller's application, or nil when they have not started one.
func (s *TherapistApplicationService) Mine(ctx context.Context, identity models.Identity) (*models.TherapistApplication, error) {
	if err := requireTherapist(identity); err != nil {
		return nil, err
	}
	app, err := s.store.GetTherapistApplicationByUser(ctx, identity.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return app, err
}

// Upsert creates the caller's draft on first use and merges the supplied fields.
func (s *TherapistApplicationService) Upsert(ctx context.Context, identity models.Identity, draft models.TherapistApplicationDraft) (*models.TherapistApplication, error) {
	if err := requireTherapist(identity); err != nil {
		return nil, err
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	now := s.now()
	app, err := s.store.GetTherapistApplicationByUser(ctx, identity.UserID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		app = models.NewTherapistApplication(uuid.NewString(), identity.UserID, now)
		if err := app.ApplyDraft(draft, now); err != nil {
			return nil, err
		}
		if err := s.store.CreateTherapistApplication(ctx, app); err != nil {
			return nil, err
		}
		return app, nil
	case err != nil:
		return nil, err
	}

	from := app.Status
	if err := app.ApplyDraft(draft, now); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTherapistApplication(ctx, app); err != nil {
		return nil, err
	}
	if from != app.Status {
		recordTransition(ctx, s.audit, models.ModerationEvent{
			At: now, EntityType: "therapist_application", EntityID: app.ID, ActorID: identity.UserID,
			Action: "reopen", From: string(from), To: string(app.Status),
		})
	}
	return app, nil
}

// Submit sends the caller's draft for review.
func (s *TherapistApplicationService) Submit(ctx context.Context, identity models.Identity) (*models.TherapistApplication, error) {
	if err := requireTherapist(identity); err != nil {
		return nil, err
	}
	app, err := s.store.GetTherapistApplicationByUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if err := app.Submit(s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTherapistApplication(ctx, app); err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.WithLabelValues("therapist").Inc()
	recordTransition(ctx, s.audit, models.ModerationEvent{
		At: *app.SubmittedAt, EntityType: "therapist_application", EntityID: app.ID, ActorID: identity.UserID,
		Action: "submit", From: string(from), To: string(app.Status),
	})
	return app, nil
}

// UploadCredential stores a credential document for the caller and returns its URL.
func (s *TherapistApplicationService) UploadCredential(ctx context.Context, identity models.Identity, upload *Upload) (string, error) {
	if err := requireTherapist(identity); err != nil {
		return "", err
	}
	if s.uploader == nil {
		return "", apperrors.New(apperrors.CodeServerError, "document uploads are not available right now")
	}
	return s.uploader.UploadCredential(ctx, identity.UserID, upload)
}

func (s *TherapistApplicationService) Get(ctx context.Context, admin models.Identity, id string) (*models.TherapistApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.store.GetTherapistApplication(ctx, id)
}

// List returns applications, optionally filtered by status.
func (s *TherapistApplicationService) List(ctx context.Context, admin models.Identity, status string) ([]models.TherapistApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	var filter models.TherapistApplicationStatus
	if status != "" {
		parsed, err := models.ParseTherapistApplicationStatus(status)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	return s.store.ListTherapistApplications(ctx, filter)
}

// Review approves or rejects a pending application. Approval creates the verified psychologist
// profile in the same transaction.
func (s *TherapistApplicationService) Review(ctx context.Context, admin models.Identity, id string, in ReviewInput) (*models.TherapistApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	decision, err := models.ParseReviewDecision(in.Status)
	if err != nil {
		return nil, err
	}

	var (
		app    *models.TherapistApplication
		change VerificationChange
	)
	now := s.now()
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		app, err = tx.GetTherapistApplication(ctx, id)
		if err != nil {
			return err
		}
		if err := checkVersion("therapist application", in.Version, app.Version); err != nil {
			return err
		}

		var psychologistID string
		if decision == models.DecisionApproved {
			psychologistID = uuid.NewString()
		}
		if err := app.Review(decision, in.RejectionReason, psychologistID, now); err != nil {
			return err
		}
		if decision == models.DecisionApproved {
			if err := tx.CreatePsychologist(ctx, models.NewPsychologistFromApplication(psychologistID, app, now)); err != nil {
				return err
			}
			change, err = s.verification.SetVerified(ctx, tx, admin.UserID, models.ProfilePsychologist, psychologistID)
			if err != nil {
				return err
			}
		}
		return tx.UpdateTherapistApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	recordTransition(ctx, s.audit, models.ModerationEvent{
		At: now, EntityType: "therapist_application", EntityID: app.ID, ActorID: admin.UserID,
		Action: "review", From: string(models.TherapistPending), To: string(app.Status),
	})
	s.verification.publish(ctx, change)
	notify(s.log, "therapist_application", func() error {
		return s.notifier.TherapistApplicationReviewed(ctx, app)
	})
	return app, nil
}
