package postgres

import (
	"context"
	"fmt"

	"eventmanager/internal/domain"
)

type imageRepository struct {
	DB DBTX
}

// NewImageRepository returns a domain.ImageRepository implemented with Postgres.
func NewImageRepository(db DBTX) domain.ImageRepository {
	return &imageRepository{DB: db}
}

func (r *imageRepository) Create(ctx context.Context, img *domain.Image) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO images (id, event_id, url, created_at) VALUES ($1, $2, $3, $4)`,
		img.ID, img.EventID, img.URL, img.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return fmt.Errorf("%w: image %s already exists", domain.ErrConflict, img.URL)
		case codeForeignKeyViolation:
			return fmt.Errorf("event %s: %w", img.EventID, domain.ErrNotFound)
		}
		return translateWriteError(err)
	}
	return nil
}

func (r *imageRepository) GetByEventAndURL(ctx context.Context, eventID, url string) (*domain.Image, error) {
	img := &domain.Image{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, event_id, url, created_at FROM images WHERE event_id = $1 AND url = $2`, eventID, url).
		Scan(&img.ID, &img.EventID, &img.URL, &img.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "image", url)
	}
	return img, nil
}

func (r *imageRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Image, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, event_id, url, created_at FROM images WHERE event_id = $1 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]*domain.Image, 0)
	for rows.Next() {
		img := &domain.Image{}
		if err := rows.Scan(&img.ID, &img.EventID, &img.URL, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return translateWriteError(notFoundOr(err, "image", id))
	}
	return affectedOrNotFound(result, "image", id)
}
