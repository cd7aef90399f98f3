package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"gemini-gateway/internal/storage"
	gateway_errors "gemini-gateway/pkg/errors"

	"github.com/google/uuid"
)

// Presigner issues direct-to-bucket upload URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (storage.PresignedUpload, error)
}

type UploadService struct {
	storage Presigner
	maxSize int64
}

// NewUploadService returns a service that answers ErrServiceUnavailable for
// every request when storage is nil.
func NewUploadService(storage Presigner, maxSize int64) *UploadService {
	return &UploadService{storage: storage, maxSize: maxSize}
}

type PresignInput struct {
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	FileSize    int64
}

type PresignResult struct {
	UploadURL string
	UploadKey string
	FileURL   string
	Headers   map[string]string
}

func (s *UploadService) CreatePresignedUpload(ctx context.Context, in PresignInput) (PresignResult, error) {
	if s.storage == nil {
		return PresignResult{}, fmt.Errorf("object storage is not configured: %w", gateway_errors.ErrServiceUnavailable)
	}
	if in.UploaderID == uuid.Nil || strings.TrimSpace(in.FileName) == "" || in.FileSize <= 0 {
		return PresignResult{}, gateway_errors.ErrInvalidInput
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if !allowedContentType(contentType) {
		return PresignResult{}, gateway_errors.ErrInvalidInput
	}
	if s.maxSize > 0 && in.FileSize > s.maxSize {
		return PresignResult{}, gateway_errors.ErrTooLarge
	}

	key := buildObjectKey(in.UploaderID, uuid.New(), in.FileName)
	up, err := s.storage.PresignPut(ctx, key, contentType, in.FileSize)
	if err != nil {
		return PresignResult{}, err
	}

	return PresignResult{
		UploadURL: up.URL,
		UploadKey: key,
		FileURL:   up.FileURL,
		Headers:   up.Headers,
	}, nil
}

func allowedContentType(ct string) bool {
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

func buildObjectKey(uploaderID, objectID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	base := fmt.Sprintf("uploads/%s/%s", uploaderID.String(), objectID.String())
	if ext == "" || ext == "." {
		return base
	}
	return base + ext
}
