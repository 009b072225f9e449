package handlers

import (
	"net/http"

	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

// SubmitClinicApplication handles the public multipart clinic application
func (h *Handlers) SubmitClinicApplication(w http.ResponseWriter, r *http.Request) {
	upload, closeFile, err := parseDocumentForm(w, r, "document", true)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer closeFile()

	sub := models.ClinicApplicationSubmission{
		ClinicName:   formValue(r, "clinic_name"),
		Country:      formValue(r, "country"),
		ContactEmail: formValue(r, "contact_email"),
		ContactPhone: optionalFormValue(r, "contact_phone"),
		Description:  optionalFormValue(r, "description"),
	}
	app, err := h.clinics.Submit(r.Context(), sub, upload)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "application received, we will e-mail you once it has been reviewed",
		"application": app,
	})
}
