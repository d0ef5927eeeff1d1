package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/Candra0x6/Inventy-sub003/core/models"
	"github.com/Candra0x6/Inventy-sub003/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrItemNotFound means the item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrNoPhoto means the item has no stored photo.
	ErrNoPhoto = errors.New("item has no photo")
)

// Service stores and serves item photos.
type Service struct {
	db     *gorm.DB
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates an attachment service.
func NewService(db *gorm.DB, client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{db: db, client: client, bucket: bucket, logger: logger}
}

// Photo is a stored photo stream plus its content type.
type Photo struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Upload stores the photo and points the item at the new object. A previous
// photo is removed after the item row commits.
func (s *Service) Upload(ctx context.Context, itemID, filename, contentType string, body io.Reader, size int64) (string, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return "", err
	}

	key := path.Join("items", itemID, uuid.NewString()+path.Ext(filename))
	_, err = s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"photo_key": key, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return "", fmt.Errorf("failed to link photo: %w", err)
	}

	if item.PhotoKey != "" {
		if err := s.client.RemoveObject(ctx, s.bucket, item.PhotoKey, minio.RemoveObjectOptions{}); err != nil {
			// The new photo is already live; the orphan only wastes space.
			s.logger.Warn("failed to remove replaced photo",
				zap.String("item_id", itemID), zap.String("key", item.PhotoKey), zap.Error(err))
		}
	}
	return key, nil
}

// Get streams the item's photo.
func (s *Service) Get(ctx context.Context, itemID string) (*Photo, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.PhotoKey == "" {
		return nil, ErrNoPhoto
	}

	stat, err := s.client.StatObject(ctx, s.bucket, item.PhotoKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat photo: %w", err)
	}
	body, err := s.client.GetObject(ctx, s.bucket, item.PhotoKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	return &Photo{Body: body, ContentType: stat.ContentType, Size: stat.Size}, nil
}

// Delete removes the item's photo from storage and clears the link.
func (s *Service) Delete(ctx context.Context, itemID string) error {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.PhotoKey == "" {
		return ErrNoPhoto
	}

	if err := s.client.RemoveObject(ctx, s.bucket, item.PhotoKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return s.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"photo_key": "", "updated_at": time.Now().UTC()}).Error
}

func (s *Service) loadItem(ctx context.Context, itemID string) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}
