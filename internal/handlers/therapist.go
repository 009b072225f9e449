package handlers

import (
	"net/http"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

// GetMyTherapistApplication returns the caller's application, 404 when none was started
func (h *Handlers) GetMyTherapistApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.therapists.Mine(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if app == nil {
		writeError(w, r, h.log, apperrors.NotFound("therapist application"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}

// UpsertMyTherapistApplication saves draft fields, creating the draft on first use
func (h *Handlers) UpsertMyTherapistApplication(w http.ResponseWriter, r *http.Request) {
	var draft models.TherapistApplicationDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	app, err := h.therapists.Upsert(r.Context(), middleware.IdentityFrom(r.Context()), draft)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}

// SubmitMyTherapistApplication sends the caller's draft for review
func (h *Handlers) SubmitMyTherapistApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.therapists.Submit(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": app})
}
