package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"eventmanager/internal/domain"
)

type eventRepository struct {
	DB DBTX
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, name, description, date_time, location, category_id, max_participants, image_urls, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.DateTime, &e.Location, &e.CategoryID,
		&e.MaxParticipants, pq.Array(&e.ImageURLs), &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.ImageURLs == nil {
		e.ImageURLs = []string{}
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Name, e.Description, e.DateTime, e.Location, e.CategoryID,
		e.MaxParticipants, pq.Array(e.ImageURLs), e.CreatedAt, e.UpdatedAt,
	)
	return r.translate(err, e)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "event", id)
	}
	return e, nil
}

func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateWriteError(notFoundOr(err, "event", id))
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date_time ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, date_time = $3, location = $4,
		    category_id = $5, max_participants = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.Name, e.Description, e.DateTime, e.Location, e.CategoryID, e.MaxParticipants, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return r.translate(err, e)
	}
	return affectedOrNotFound(result, "event", e.ID)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return notFoundOr(err, "event", id)
	}
	return affectedOrNotFound(result, "event", id)
}

func (r *eventRepository) ExistsWithCategory(ctx context.Context, categoryID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE category_id = $1)`, categoryID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *eventRepository) AppendImageURL(ctx context.Context, eventID, url string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE events SET image_urls = array_append(image_urls, $2), updated_at = NOW() WHERE id = $1`,
		eventID, url)
	if err != nil {
		return translateWriteError(err)
	}
	return affectedOrNotFound(result, "event", eventID)
}

func (r *eventRepository) RemoveImageURL(ctx context.Context, eventID, url string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE events SET image_urls = array_remove(image_urls, $2), updated_at = NOW() WHERE id = $1`,
		eventID, url)
	if err != nil {
		return translateWriteError(err)
	}
	return affectedOrNotFound(result, "event", eventID)
}

func (r *eventRepository) translate(err error, e *domain.Event) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: event name %q already exists", domain.ErrConflict, e.Name)
	case codeForeignKeyViolation:
		return fmt.Errorf("category %s: %w", e.CategoryID, domain.ErrNotFound)
	}
	return translateWriteError(err)
}
