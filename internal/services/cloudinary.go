package services

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CredentialUploader stores a therapist's credential scan and returns the URL the application
// references in credentials[].document_url.
type CredentialUploader interface {
	UploadCredential(ctx context.Context, userID string, upload *Upload) (string, error)
}

type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cld:    cld,
		folder: "therapist-credentials",
	}, nil
}

func (s *CloudinaryService) UploadCredential(ctx context.Context, userID string, upload *Upload) (string, error) {
	fileBytes, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       s.folder + "/" + userID,
		ResourceType: "auto", // PDFs and images
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.SecureURL, nil
}
