package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/metrics"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
)

type CreateReportInput struct {
	PsychologistID string  `json:"psychologist_id" validate:"required"`
	Reason         string  `json:"reason,omitempty"`
	Details        *string `json:"details,omitempty" validate:"omitempty,max=4000"`
}

// UpdateReportInput is the admin PATCH on a report. Status is applied before the action.
type UpdateReportInput struct {
	Status      *string `json:"status,omitempty"`
	ActionTaken *string `json:"action_taken,omitempty"`
	Version     *int64  `json:"version,omitempty"`
}

type ReportService struct {
	store        repository.Store
	verification *VerificationService
	audit        AuditRecorder
	log          logger.Logger
	now          func() time.Time
}

func NewReportService(store repository.Store, verification *VerificationService, audit AuditRecorder, log logger.Logger) *ReportService {
	return &ReportService{
		store:        store,
		verification: verification,
		audit:        audit,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create files a report against a psychologist. Any signed-in user may report.
func (s *ReportService) Create(ctx context.Context, identity models.Identity, in CreateReportInput) (*models.ProfessionalReport, error) {
	if !identity.Authenticated() {
		return nil, apperrors.Unauthorized("sign in to report a professional")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	reason, err := models.ParseReportReason(in.Reason)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetPsychologist(ctx, in.PsychologistID); err != nil {
		return nil, err
	}

	report := models.NewProfessionalReport(uuid.NewString(), identity.UserID, in.PsychologistID, reason, in.Details, s.now())
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	metrics.ReportsCreated.WithLabelValues(string(reason)).Inc()
	return report, nil
}

func (s *ReportService) Get(ctx context.Context, admin models.Identity, id string) (*models.ProfessionalReport, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.store.GetReport(ctx, id)
}

func (s *ReportService) List(ctx context.Context, admin models.Identity, status string) ([]models.ProfessionalReport, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	var filter models.ReportStatus
	if status != "" {
		parsed, err := models.ParseReportStatus(status)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	return s.store.ListReports(ctx, filter)
}

func (s *ReportService) SetStatus(ctx context.Context, admin models.Identity, id, status string) (*models.ProfessionalReport, error) {
	return s.Update(ctx, admin, id, UpdateReportInput{Status: &status})
}

func (s *ReportService) SetAction(ctx context.Context, admin models.Identity, id, action string) (*models.ProfessionalReport, error) {
	return s.Update(ctx, admin, id, UpdateReportInput{ActionTaken: &action})
}

// Update changes a report's status and action together. An action that restricts the reported
// psychologist updates their verification in the same transaction.
func (s *ReportService) Update(ctx context.Context, admin models.Identity, id string, in UpdateReportInput) (*models.ProfessionalReport, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	var (
		status *models.ReportStatus
		action *models.ReportAction
	)
	if in.Status != nil {
		parsed, err := models.ParseReportStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}
	if in.ActionTaken != nil {
		parsed, err := models.ParseReportAction(*in.ActionTaken)
		if err != nil {
			return nil, err
		}
		action = &parsed
	}
	if status == nil && action == nil {
		return nil, apperrors.Validation("status or action_taken is required")
	}

	var (
		report     *models.ProfessionalReport
		fromStatus models.ReportStatus
		fromAction models.ReportAction
		change     VerificationChange
	)
	now := s.now()
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		report, err = tx.GetReport(ctx, id)
		if err != nil {
			return err
		}
		if err := checkVersion("report", in.Version, report.Version); err != nil {
			return err
		}
		fromStatus, fromAction = report.Status, report.ActionTaken

		if status != nil {
			if err := report.SetStatus(*status, now); err != nil {
				return err
			}
		}
		if action != nil {
			effect, ok, err := report.SetAction(*action, now)
			if err != nil {
				return err
			}
			if ok {
				change, err = s.verification.ApplyReportAction(ctx, tx, admin.UserID, report.PsychologistID, effect)
				if err != nil {
					return err
				}
			}
		}
		return tx.UpdateReport(ctx, report)
	})
	if err != nil {
		return nil, err
	}

	if report.Status != fromStatus {
		recordTransition(ctx, s.audit, models.ModerationEvent{
			At: now, EntityType: "report", EntityID: report.ID, ActorID: admin.UserID,
			Action: "set_status", From: string(fromStatus), To: string(report.Status),
		})
	}
	if action != nil {
		recordTransition(ctx, s.audit, models.ModerationEvent{
			At: now, EntityType: "report", EntityID: report.ID, ActorID: admin.UserID,
			Action: "set_action", From: string(fromAction), To: string(report.ActionTaken),
		})
	}
	s.verification.publish(ctx, change)
	return report, nil
}
