package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnshRaj112/mindfulkids-backend/internal/handlers"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/pkg/clientip"
)

// Options carries the per-route limits. Nil limiters leave their routes unthrottled.
type Options struct {
	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	ClinicSubmissions *middleware.SubmissionLimiter
	Reports           *middleware.SubmissionLimiter

	AllowedOrigins []string
	// Production enables security headers, the host check and the in-process rate limits.
	Production  bool
	AllowedHost string
	ClientIP    func(*http.Request) string
}

// NewRouter assembles the global middleware stack around the API routes.
func NewRouter(h *handlers.Handlers, resolver middleware.IdentityResolver, log logger.Logger, opts Options) *chi.Mux {
	if opts.ClientIP == nil {
		opts.ClientIP = clientip.RealClientIP
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	if opts.Production {
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost, opts.ClientIP) {
			r.Use(mw)
		}
	}

	// Health check and metrics skip authentication
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(resolver, log))
		SetupRoutes(r, h, opts)
	})
	return r
}

func limited(l *middleware.SubmissionLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Handler
}

func SetupRoutes(r chi.Router, h *handlers.Handlers, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 30 * time.Second
	}

	// Multipart uploads get the longer budget
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.UploadTimeout))

		r.With(limited(opts.ClinicSubmissions)).Post("/api/clinic-applications", h.SubmitClinicApplication)
		r.With(middleware.RequireAuth).Post("/api/uploads/credentials", h.UploadCredential)
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))

		// Public
		r.Post("/api/auth/signup", h.SignUp)
		r.Post("/api/auth/signin", h.SignIn)
		r.Post("/api/auth/set-password-from-invite", h.SetPasswordFromInvite)
		r.Get("/api/psychologists", h.ListPsychologists)
		r.Get("/api/clinics", h.ListClinics)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/api/auth/signout", h.SignOut)
			r.Get("/api/auth/me", h.Me)

			r.Get("/api/therapist-applications/me", h.GetMyTherapistApplication)
			r.Put("/api/therapist-applications/me", h.UpsertMyTherapistApplication)
			r.Post("/api/therapist-applications/me/submit", h.SubmitMyTherapistApplication)

			r.With(limited(opts.Reports)).Post("/api/reports/professional", h.ReportProfessional)

			// Admin checks happen in the services so every caller gets the same answer
			r.Route("/api/admin", func(r chi.Router) {
				r.Get("/therapist-applications", h.ListTherapistApplications)
				r.Get("/therapist-applications/{id}", h.GetTherapistApplication)
				r.Patch("/therapist-applications/{id}", h.ReviewTherapistApplication)

				r.Patch("/psychologists/{id}", h.SetPsychologistVerified)
				r.Patch("/psychologists/{id}/status", h.SetPsychologistStatus)
				r.Patch("/clinics/{id}/status", h.SetClinicStatus)

				r.Get("/clinic-applications", h.ListClinicApplications)
				r.Get("/clinic-applications/{id}", h.GetClinicApplication)
				r.Patch("/clinic-applications/{id}", h.ReviewClinicApplication)
				r.Get("/clinic-applications/{id}/document", h.GetClinicDocumentURL)

				r.Get("/reports", h.ListReports)
				r.Get("/reports/{id}", h.GetReport)
				r.Patch("/reports/{id}", h.UpdateReport)
			})
		})
	})
}
