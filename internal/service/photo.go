package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/storage"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// PhotoService stores rating photos in object storage. The returned URL is
// attached to a rating on submit, upsert or update.
type PhotoService struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewPhotoService creates a new photo service.
func NewPhotoService(store storage.Storage, logger *slog.Logger) *PhotoService {
	return &PhotoService{storage: store, logger: logger}
}

// UploadPhotoInput holds the parameters for uploading a photo.
type UploadPhotoInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Upload validates and stores a photo under ratings/<userID>/<uuid><ext>.
func (s *PhotoService) Upload(ctx context.Context, p domain.Principal, input UploadPhotoInput) (*storage.UploadResult, error) {
	ext, ok := domain.AllowedPhotoTypes[input.ContentType]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", input.ContentType))
	}
	if input.Size <= 0 {
		return nil, apperrors.InvalidInput("file size must be greater than zero")
	}
	if input.Size > domain.MaxPhotoSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", input.Size, domain.MaxPhotoSize))
	}

	key := fmt.Sprintf("ratings/%s/%s%s", p.ID, uuid.New().String(), ext)
	result, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: input.ContentType,
		Size:        input.Size,
		Data:        input.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	s.logger.InfoContext(ctx, "photo uploaded",
		slog.String("key", key),
		slog.String("file_name", input.FileName),
		slog.Int64("size", input.Size),
	)
	return result, nil
}
