package handlers

import "net/http"

// ListPsychologists returns the public directory of verified psychologists
func (h *Handlers) ListPsychologists(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.Psychologists(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"psychologists": list, "count": len(list)})
}

// ListClinics returns the public directory of verified clinics
func (h *Handlers) ListClinics(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.Clinics(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clinics": list, "count": len(list)})
}
