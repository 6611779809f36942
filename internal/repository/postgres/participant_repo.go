package postgres

import (
	"context"
	"fmt"

	"eventmanager/internal/domain"
)

type participantRepository struct {
	DB DBTX
}

// NewParticipantRepository returns a domain.ParticipantRepository implemented with Postgres.
func NewParticipantRepository(db DBTX) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

const participantColumns = `user_id, event_id, registered_at, first_name, last_name, date_of_birth`

// Create inserts the participant. The (user_id, event_id) primary key rejects a second
// registration of the same user even when two requests race past the in-memory check.
func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (` + participantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, p.UserID, p.EventID, p.RegisteredAt, p.FirstName, p.LastName, p.DateOfBirth)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return domain.ErrDuplicateParticipant
		case codeForeignKeyViolation:
			return fmt.Errorf("event %s or user %s: %w", p.EventID, p.UserID, domain.ErrNotFound)
		}
		return translateWriteError(err)
	}
	return nil
}

func (r *participantRepository) Delete(ctx context.Context, eventID, userID string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return translateWriteError(notFoundOr(err, "participant", userID))
	}
	return affectedOrNotFound(result, "participant", userID)
}

func (r *participantRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1
		ORDER BY registered_at ASC, user_id ASC
	`
	return r.list(ctx, query, eventID)
}

func (r *participantRepository) ListPageByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Participant, int, error) {
	total, err := r.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1
		ORDER BY registered_at ASC, user_id ASC
		LIMIT $2 OFFSET $3
	`
	ps, err := r.list(ctx, query, eventID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return ps, total, nil
}

func (r *participantRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE event_id = $1`, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *participantRepository) ListEventIDsByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT event_id FROM participants WHERE user_id = $1 ORDER BY registered_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *participantRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]*domain.Participant, 0)
	for rows.Next() {
		p := &domain.Participant{}
		if err := rows.Scan(&p.UserID, &p.EventID, &p.RegisteredAt, &p.FirstName, &p.LastName, &p.DateOfBirth); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ps, nil
}
