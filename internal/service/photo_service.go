package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/storage"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
	"github.com/google/uuid"
)

type PhotoService interface {
	CreateUploadURL(ctx context.Context, guestID string, req *domain.PhotoUploadRequest) (*domain.PhotoUploadResponse, error)
}

type photoService struct {
	presigner storage.Presigner
	config    config.StorageConfig
	now       func() time.Time
}

// NewPhotoService accepts a nil presigner; uploads then fail with
// domain.ErrUploadsDisabled.
func NewPhotoService(presigner storage.Presigner, cfg config.StorageConfig) PhotoService {
	return &photoService{
		presigner: presigner,
		config:    cfg,
		now:       time.Now,
	}
}

func (s *photoService) CreateUploadURL(ctx context.Context, guestID string, req *domain.PhotoUploadRequest) (*domain.PhotoUploadResponse, error) {
	if s.presigner == nil {
		return nil, domain.ErrUploadsDisabled
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	name := s.now().UTC().Format("20060102150405") + "-" + uuid.NewString()[:8] + "-" + domain.SanitizeFileName(req.FileName)
	key := path.Join(s.config.UploadPrefix, guestID, name)

	url, err := s.presigner.PresignUpload(ctx, key, req.ContentType, s.config.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	logger.InfoContext(ctx, "Photo upload URL issued", "guest_id", guestID, "key", key)

	return &domain.PhotoUploadResponse{
		UploadURL: url,
		Key:       key,
		ExpiresIn: int64(s.config.URLExpiry.Seconds()),
	}, nil
}
