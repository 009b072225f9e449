// Package handlers exposes the moderation services over HTTP.
package handlers

import (
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
)

// Handlers holds the services every route delegates to.
type Handlers struct {
	auth         *services.AuthService
	therapists   *services.TherapistApplicationService
	clinics      *services.ClinicApplicationService
	verification *services.VerificationService
	reports      *services.ReportService
	directory    *services.DirectoryService
	log          logger.Logger
}

type Services struct {
	Auth                  *services.AuthService
	TherapistApplications *services.TherapistApplicationService
	ClinicApplications    *services.ClinicApplicationService
	Verification          *services.VerificationService
	Reports               *services.ReportService
	Directory             *services.DirectoryService
}

func New(svc Services, log logger.Logger) *Handlers {
	return &Handlers{
		auth:         svc.Auth,
		therapists:   svc.TherapistApplications,
		clinics:      svc.ClinicApplications,
		verification: svc.Verification,
		reports:      svc.Reports,
		directory:    svc.Directory,
		log:          log,
	}
}
