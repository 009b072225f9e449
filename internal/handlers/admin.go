package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
)

// ListTherapistApplications returns applications, optionally filtered with ?status=
func (h *Handlers) ListTherapistApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.therapists.List(r.Context(), middleware.IdentityFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps, "count": len(apps)})
}

func (h *Handlers) GetTherapistApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.therapists.Get(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}

// ReviewTherapistApplication approves or rejects a pending therapist application
func (h *Handlers) ReviewTherapistApplication(w http.ResponseWriter, r *http.Request) {
	var req services.ReviewInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	app, err := h.therapists.Review(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}

type setVerifiedRequest struct {
	IsVerified *bool `json:"is_verified"`
}

// SetPsychologistVerified toggles the is_verified flag: false suspends the profile
func (h *Handlers) SetPsychologistVerified(w http.ResponseWriter, r *http.Request) {
	var req setVerifiedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.IsVerified == nil {
		writeError(w, r, h.log, apperrors.Validation("is_verified is required"))
		return
	}
	p, err := h.verification.SetPsychologistVerified(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), *req.IsVerified)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"psychologist": p})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetPsychologistStatus sets verified, suspended or rejected ("active" means verified)
func (h *Handlers) SetPsychologistStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.verification.SetPsychologistStatus(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"psychologist": p})
}

func (h *Handlers) SetClinicStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	c, err := h.verification.SetClinicStatus(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clinic": c})
}

func (h *Handlers) ListClinicApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.clinics.List(r.Context(), middleware.IdentityFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps, "count": len(apps)})
}

func (h *Handlers) GetClinicApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.clinics.Get(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}

func (h *Handlers) ReviewClinicApplication(w http.ResponseWriter, r *http.Request) {
	var req services.ReviewInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	app, err := h.clinics.Review(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}

// GetClinicDocumentURL presigns a short-lived link to the clinic's private document
func (h *Handlers) GetClinicDocumentURL(w http.ResponseWriter, r *http.Request) {
	doc, err := h.clinics.DocumentURL(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":                doc.URL,
		"expires_in_seconds": doc.ExpiresInSeconds,
	})
}

func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context(), middleware.IdentityFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
}

func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Get(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// UpdateReport applies a status and/or enforcement action to a report
func (h *Handlers) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateReportInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	report, err := h.reports.Update(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}
