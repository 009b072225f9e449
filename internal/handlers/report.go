package handlers

import (
	"net/http"

	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
)

// ReportProfessional files a report against a psychologist
func (h *Handlers) ReportProfessional(w http.ResponseWriter, r *http.Request) {
	var req services.CreateReportInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	report, err := h.reports.Create(r.Context(), middleware.IdentityFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"report": report})
}
