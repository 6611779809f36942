package domain

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Image is an uploaded picture owned by an event.
// swagger:model Image
type Image struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AllowedImageExtensions lists the file extensions accepted for upload.
var AllowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".png":  {},
	".webp": {},
}

// ValidateImageFileName rejects names that could escape the event's image directory:
// empty names, absolute paths, path separators, and the "." and ".." segments.
func ValidateImageFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return Invalidf("file name is required")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return Invalidf("file name must not be an absolute path")
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return Invalidf("file name must not contain path separators")
	}
	// Without separators the only directory segments left are the whole name.
	if name == "." || name == ".." {
		return Invalidf("file name must not be a directory segment")
	}
	return nil
}

// ImageCacheKey returns the cache key for an event image.
func ImageCacheKey(eventID, fileName string) string {
	return "image:" + eventID + ":" + fileName
}

// ImageRepository defines storage for image rows.
type ImageRepository interface {
	Create(ctx context.Context, img *Image) error
	GetByEventAndURL(ctx context.Context, eventID, url string) (*Image, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Image, error)
	Delete(ctx context.Context, id string) error
}

// FileStorage stores image files.
type FileStorage interface {
	// Save writes r under a collision-resistant name derived from suggestedName and returns its URL.
	// A partially written file is removed when ctx is cancelled.
	Save(ctx context.Context, eventID string, r io.Reader, suggestedName string) (string, error)
	Read(ctx context.Context, eventID, fileName string) ([]byte, error)
	Delete(ctx context.Context, url string) error
	// URL returns the normalized URL of an event file.
	URL(eventID, fileName string) string
}

// Cache is a byte-oriented key-value cache.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// ImageService uploads, serves and deletes event images.
type ImageService interface {
	UploadImage(ctx context.Context, eventID, fileName string, r io.Reader) (*Image, error)
	GetImage(ctx context.Context, eventID, fileName string) ([]byte, error)
	DeleteImage(ctx context.Context, eventID, fileName string) error
}
