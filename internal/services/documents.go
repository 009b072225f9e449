package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
)

// DocumentStore keeps private clinic documents. Documents are never public; admins read them
// through short-lived presigned URLs.
type DocumentStore interface {
	Put(ctx context.Context, key string, upload *Upload) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// MinIODocumentStore implements DocumentStore using MinIO/S3-compatible storage.
type MinIODocumentStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinIODocumentStore creates the client and makes sure the bucket exists.
func NewMinIODocumentStore(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIODocumentStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinIODocumentStore{client: client, bucketName: bucketName}
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return s, nil
}

func (s *MinIODocumentStore) Put(ctx context.Context, key string, upload *Upload) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, upload.Body, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
		UserMetadata: map[string]string{
			"Original-Filename": upload.Filename,
			"Uploaded-At":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (s *MinIODocumentStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return u.String(), nil
}
