package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"eventmanager/internal/domain"
)

// DefaultBaseURL is the URL prefix of stored images when none is configured.
const DefaultBaseURL = "/images"

// LocalStorage stores event images under root/<eventID>/<uuid>_<name>.
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage creates root if needed. URLs are built as baseURL/<eventID>/<file>.
func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("file storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create file storage root: %w", err)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &LocalStorage{root: root, baseURL: baseURL}, nil
}

var _ domain.FileStorage = (*LocalStorage)(nil)

func (s *LocalStorage) URL(eventID, fileName string) string {
	return s.baseURL + "/" + path.Join(eventID, fileName)
}

// Save copies r into a new file. The copy stops when ctx is done and the partial file
// is removed.
func (s *LocalStorage) Save(ctx context.Context, eventID string, r io.Reader, suggestedName string) (string, error) {
	if err := checkSegment(eventID); err != nil {
		return "", err
	}
	if err := domain.ValidateImageFileName(suggestedName); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(suggestedName))
	if _, ok := domain.AllowedImageExtensions[ext]; !ok {
		return "", domain.Invalidf("file extension %q is not allowed", ext)
	}

	dir := filepath.Join(s.root, eventID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create event directory: %w", domain.ErrStorage, err)
	}
	name := uuid.NewString() + "_" + sanitize(suggestedName)
	fullPath := filepath.Join(dir, name)

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create file: %w", domain.ErrStorage, err)
	}
	_, copyErr := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("%w: write file: %w", domain.ErrStorage, err)
	}
	return s.URL(eventID, name), nil
}

func (s *LocalStorage) Read(ctx context.Context, eventID, fileName string) ([]byte, error) {
	if err := checkSegment(eventID); err != nil {
		return nil, err
	}
	if err := domain.ValidateImageFileName(fileName); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, eventID, fileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NotFoundf("image file %s", fileName)
		}
		return nil, fmt.Errorf("%w: read file: %w", domain.ErrStorage, err)
	}
	return data, nil
}

// Delete removes the file behind url. A file that is already gone counts as deleted.
func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	eventID, fileName, err := s.parseURL(url)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, eventID, fileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: delete file: %w", domain.ErrStorage, err)
	}
	return nil
}

func (s *LocalStorage) parseURL(url string) (eventID, fileName string, err error) {
	rest, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return "", "", domain.Invalidf("url %q is not a stored image", url)
	}
	eventID, fileName, ok = strings.Cut(rest, "/")
	if !ok {
		return "", "", domain.Invalidf("url %q is not a stored image", url)
	}
	if err := checkSegment(eventID); err != nil {
		return "", "", err
	}
	if err := domain.ValidateImageFileName(fileName); err != nil {
		return "", "", err
	}
	return eventID, fileName, nil
}

func checkSegment(eventID string) error {
	if eventID == "" || eventID == "." || strings.Contains(eventID, "..") || strings.ContainsAny(eventID, `/\`) {
		return domain.Invalidf("invalid event id %q", eventID)
	}
	return nil
}

// sanitize keeps letters, digits, dot, dash and underscore; everything else becomes '_'.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
