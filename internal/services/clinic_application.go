package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/metrics"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
	"github.com/AnshRaj112/mindfulkids-backend/pkg/utils"
)

// DocumentURL is a short-lived link to a clinic's private document.
type DocumentURL struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type ClinicApplicationService struct {
	store        repository.Store
	verification *VerificationService
	documents    DocumentStore
	invites      *InviteStore
	notifier     Notifier
	audit        AuditRecorder
	log          logger.Logger
	documentTTL  time.Duration
	now          func() time.Time
}

func NewClinicApplicationService(store repository.Store, verification *VerificationService, documents DocumentStore, invites *InviteStore, notifier Notifier, audit AuditRecorder, log logger.Logger, documentTTL time.Duration) *ClinicApplicationService {
	return &ClinicApplicationService{
		store:        store,
		verification: verification,
		documents:    documents,
		invites:      invites,
		notifier:     notifier,
		audit:        audit,
		log:          log,
		documentTTL:  documentTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores the clinic's document privately and files a pending application. Anyone may
// submit; throttling happens in front of this call.
func (s *ClinicApplicationService) Submit(ctx context.Context, sub models.ClinicApplicationSubmission, upload *Upload) (*models.ClinicApplication, error) {
	if err := validateStruct(sub); err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, apperrors.Validation("document is required")
	}
	if s.documents == nil {
		return nil, apperrors.New(apperrors.CodeServerError, "document storage is not available right now")
	}

	id := uuid.NewString()
	key := fmt.Sprintf("clinic-applications/%s/%s%s", id, uuid.NewString(), upload.Extension())
	if err := s.documents.Put(ctx, key, upload); err != nil {
		return nil, err
	}

	app := models.NewClinicApplication(id, sub, key, s.now())
	if err := s.store.CreateClinicApplication(ctx, app); err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.WithLabelValues("clinic").Inc()
	s.log.Info("clinic application submitted", map[string]interface{}{"application_id": app.ID})
	visible := app.Visible(s.now())
	return &visible, nil
}

func (s *ClinicApplicationService) Get(ctx context.Context, admin models.Identity, id string) (*models.ClinicApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	app, err := s.store.GetClinicApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	visible := app.Visible(s.now())
	return &visible, nil
}

func (s *ClinicApplicationService) List(ctx context.Context, admin models.Identity, status string) ([]models.ClinicApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	var filter models.ClinicApplicationStatus
	if status != "" {
		parsed, err := models.ParseClinicApplicationStatus(status)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	apps, err := s.store.ListClinicApplications(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range apps {
		apps[i] = apps[i].Visible(now)
	}
	return apps, nil
}

// Review approves or rejects a pending application. Approval creates the verified clinic and
// issues the one-time invite for its administrator account.
func (s *ClinicApplicationService) Review(ctx context.Context, admin models.Identity, id string, in ReviewInput) (*models.ClinicApplication, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	decision, err := models.ParseReviewDecision(in.Status)
	if err != nil {
		return nil, err
	}

	var (
		app    *models.ClinicApplication
		change VerificationChange
	)
	now := s.now()
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		app, err = tx.GetClinicApplication(ctx, id)
		if err != nil {
			return err
		}
		if err := checkVersion("clinic application", in.Version, app.Version); err != nil {
			return err
		}
		if app.Status != models.ClinicPending {
			return apperrors.InvalidTransition("clinic application", "review", string(app.Status))
		}

		if decision == models.DecisionRejected {
			if err := app.Review(decision, in.RejectionReason, nil, now); err != nil {
				return err
			}
			return tx.UpdateClinicApplication(ctx, app)
		}

		_, link, expiresAt, err := s.invites.Issue(ctx, app.ID, now)
		if err != nil {
			return err
		}
		invite := &models.ClinicInvite{ClinicID: uuid.NewString(), Link: link, ExpiresAt: expiresAt}
		if err := app.Review(decision, in.RejectionReason, invite, now); err != nil {
			return err
		}
		if err := tx.CreateClinic(ctx, models.NewClinicFromApplication(invite.ClinicID, app, now)); err != nil {
			return err
		}
		change, err = s.verification.SetVerified(ctx, tx, admin.UserID, models.ProfileClinic, invite.ClinicID)
		if err != nil {
			return err
		}
		return tx.UpdateClinicApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	recordTransition(ctx, s.audit, models.ModerationEvent{
		At: now, EntityType: "clinic_application", EntityID: app.ID, ActorID: admin.UserID,
		Action: "review", From: string(models.ClinicPending), To: string(app.Status),
	})
	s.verification.publish(ctx, change)
	notify(s.log, "clinic_application", func() error {
		return s.notifier.ClinicApplicationReviewed(ctx, app)
	})
	visible := app.Visible(s.now())
	return &visible, nil
}

// RedeemInvite creates the clinic administrator account behind an invite token. A token works
// once.
func (s *ClinicApplicationService) RedeemInvite(ctx context.Context, token, password string) (*models.User, error) {
	if len(password) < utils.MinPasswordLength {
		return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", utils.MinPasswordLength))
	}
	appID, err := s.invites.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *models.User
	now := s.now()
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		app, err := tx.GetClinicApplication(ctx, appID)
		if err != nil {
			return apperrors.InvalidOrExpiredToken()
		}
		if err := app.RedeemInvite(now); err != nil {
			return err
		}
		user = &models.User{
			ID:           uuid.NewString(),
			CreatedAt:    now,
			Email:        models.NormalizeEmail(app.ContactEmail),
			DisplayName:  app.ClinicName,
			Role:         models.RoleClinicAdmin,
			ClinicID:     app.ClinicID,
			IsActive:     true,
			PasswordHash: hash,
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.UpdateClinicApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.invites.Consume(ctx, token); err != nil {
		s.log.WithError(err).Warn("failed to delete redeemed invite token", map[string]interface{}{"application_id": appID})
	}
	recordTransition(ctx, s.audit, models.ModerationEvent{
		At: now, EntityType: "clinic_application", EntityID: appID, ActorID: user.ID,
		Action: "redeem_invite", From: "invite_open", To: "account_created",
	})
	return user, nil
}

// DocumentURL presigns a fresh link to the application's document on every call.
func (s *ClinicApplicationService) DocumentURL(ctx context.Context, admin models.Identity, id string) (*DocumentURL, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	app, err := s.store.GetClinicApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.HasDocument || app.DocumentKey == "" {
		return nil, apperrors.NotFound("clinic document")
	}
	if s.documents == nil {
		return nil, apperrors.New(apperrors.CodeServerError, "document storage is not available right now")
	}
	u, err := s.documents.PresignedURL(ctx, app.DocumentKey, s.documentTTL)
	if err != nil {
		return nil, err
	}
	return &DocumentURL{URL: u, ExpiresInSeconds: int(s.documentTTL / time.Second)}, nil
}
