package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

// writeError renders the API's failure envelope.
func writeError(w http.ResponseWriter, err *apperrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err.Code))
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   err.Message,
		"code":    err.Code,
	})
}
