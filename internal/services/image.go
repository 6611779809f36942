package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

type imageService struct {
	transactor domain.Transactor
	eventRepo  domain.EventRepository
	imageRepo  domain.ImageRepository
	storage    domain.FileStorage
	cache      domain.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	loads singleflight.Group
}

// NewImageService creates an ImageService. Image bytes are cached for cacheTTL after a read.
func NewImageService(
	transactor domain.Transactor,
	eventRepo domain.EventRepository,
	imageRepo domain.ImageRepository,
	storage domain.FileStorage,
	cache domain.Cache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) domain.ImageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &imageService{
		transactor: transactor,
		eventRepo:  eventRepo,
		imageRepo:  imageRepo,
		storage:    storage,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// UploadImage stores the file, then records it on the event. If recording fails the
// stored file is removed again.
func (s *imageService) UploadImage(ctx context.Context, eventID, fileName string, r io.Reader) (*domain.Image, error) {
	if err := domain.ValidateImageFileName(fileName); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := domain.AllowedImageExtensions[ext]; !ok {
		return nil, domain.Invalidf("file extension %q is not allowed", ext)
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	url, err := s.storage.Save(ctx, eventID, r, fileName)
	if err != nil {
		return nil, fmt.Errorf("save image file: %w", err)
	}

	img := &domain.Image{
		ID:        uuid.NewString(),
		EventID:   eventID,
		URL:       url,
		CreatedAt: s.now(),
	}
	err = RunInTransaction(ctx, s.transactor, s.logger, "upload_image", func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Images().Create(ctx, img); err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		if err := tx.Events().AppendImageURL(ctx, eventID, url); err != nil {
			return fmt.Errorf("append image url: %w", err)
		}
		return nil
	})
	if err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), url); delErr != nil {
			s.logger.Error("orphaned image file", "url", url, "error", delErr)
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}
	return img, nil
}

// GetImage serves image bytes read-through the cache. Concurrent misses for the same
// image share one file read. Missing files are not cached.
func (s *imageService) GetImage(ctx context.Context, eventID, fileName string) ([]byte, error) {
	if err := domain.ValidateImageFileName(fileName); err != nil {
		return nil, err
	}
	key := domain.ImageCacheKey(eventID, fileName)

	data, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.ImageCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("image cache read failed", "key", key, "error", err)
	case ok:
		metrics.ImageCacheLookups.WithLabelValues("hit").Inc()
		return data, nil
	default:
		metrics.ImageCacheLookups.WithLabelValues("miss").Inc()
	}

	// The shared load outlives any single caller; each caller still stops waiting when its
	// own context ends.
	loadCtx := context.WithoutCancel(ctx)
	flight := s.loads.DoChan(key, func() (any, error) {
		data, err := s.storage.Read(loadCtx, eventID, fileName)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn("image cache write failed", "key", key, "error", err)
		}
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("read image: %w", ctx.Err())
	case res := <-flight:
		if res.Err != nil {
			return nil, fmt.Errorf("read image: %w", res.Err)
		}
		return res.Val.([]byte), nil
	}
}

// DeleteImage removes the image row, its URL on the event, the file and the cache entry.
// A failed file delete rolls the rows back. A cache entry evicted before a later failure
// is not restored; the next read repopulates it.
func (s *imageService) DeleteImage(ctx context.Context, eventID, fileName string) error {
	if err := domain.ValidateImageFileName(fileName); err != nil {
		return err
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	url := s.storage.URL(eventID, fileName)
	img, err := s.imageRepo.GetByEventAndURL(ctx, eventID, url)
	if err != nil {
		return fmt.Errorf("get image: %w", err)
	}

	return RunInTransaction(ctx, s.transactor, s.logger, "delete_image", func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Images().Delete(ctx, img.ID); err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		if err := tx.Events().RemoveImageURL(ctx, eventID, url); err != nil {
			return fmt.Errorf("remove image url: %w", err)
		}
		if err := s.storage.Delete(ctx, url); err != nil {
			return fmt.Errorf("delete image file: %w", err)
		}
		if err := s.cache.Remove(ctx, domain.ImageCacheKey(eventID, fileName)); err != nil {
			return fmt.Errorf("evict cached image: %w", err)
		}
		return nil
	})
}
