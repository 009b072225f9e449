package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
)

// multipartOverhead leaves room for the form fields sent next to the document.
const multipartOverhead = 1 << 20

// parseDocumentForm parses a multipart form and returns the validated document under field.
// The returned close func releases the file; it is never nil.
func parseDocumentForm(w http.ResponseWriter, r *http.Request, field string, required bool) (*services.Upload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxDocumentSize+multipartOverhead)
	if err := r.ParseMultipartForm(services.MaxDocumentSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, apperrors.Validation("document must be at most 10 MB")
		}
		return nil, noop, apperrors.Validation("invalid multipart form")
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, noop, apperrors.Validation(field + " is required")
		}
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperrors.Validation("invalid " + field)
	}
	closeFile := func() { _ = file.Close() }

	upload, err := services.NewUpload(header.Filename, header.Size, file)
	if err != nil {
		closeFile()
		return nil, noop, err
	}
	return upload, closeFile, nil
}

// UploadCredential stores a therapist's credential document and returns its URL
func (h *Handlers) UploadCredential(w http.ResponseWriter, r *http.Request) {
	upload, closeFile, err := parseDocumentForm(w, r, "file", true)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer closeFile()

	url, err := h.therapists.UploadCredential(r.Context(), middleware.IdentityFrom(r.Context()), upload)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"url": url})
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func optionalFormValue(r *http.Request, key string) *string {
	v := formValue(r, key)
	if v == "" {
		return nil
	}
	return &v
}
