package services

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

// MaxDocumentSize caps clinic documents and credential uploads.
const MaxDocumentSize = 10 << 20

var documentContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// Upload is a validated document ready to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Extension returns the canonical extension for the upload's content type.
func (u *Upload) Extension() string {
	return documentContentTypes[u.ContentType]
}

// NewUpload sniffs the content type from the first bytes rather than trusting the client, then
// rewinds the reader. Only PDF, JPEG and PNG files up to MaxDocumentSize are accepted.
func NewUpload(filename string, size int64, r io.ReadSeeker) (*Upload, error) {
	if size <= 0 {
		return nil, apperrors.Validation("document is empty")
	}
	if size > MaxDocumentSize {
		return nil, apperrors.Validation(fmt.Sprintf("document must be at most %d MB", MaxDocumentSize>>20))
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read document: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	if _, ok := documentContentTypes[contentType]; !ok {
		return nil, apperrors.Validation("document must be a PDF, JPEG or PNG file")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind document: %w", err)
	}

	return &Upload{
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        size,
		Body:        r,
	}, nil
}
