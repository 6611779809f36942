package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventmanager/internal/domain"
)

type transactor struct {
	DB *sql.DB
}

// NewTransactor returns a domain.Transactor backed by database/sql transactions.
func NewTransactor(db *sql.DB) domain.Transactor {
	return &transactor{DB: db}
}

func (t *transactor) Begin(ctx context.Context) (domain.Tx, error) {
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", domain.ErrTransaction, err)
	}
	return &txStore{tx: tx}, nil
}

// txStore hands out repositories bound to one *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (s *txStore) Events() domain.EventRepository             { return NewEventRepository(s.tx) }
func (s *txStore) Participants() domain.ParticipantRepository { return NewParticipantRepository(s.tx) }
func (s *txStore) Categories() domain.CategoryRepository      { return NewCategoryRepository(s.tx) }
func (s *txStore) Images() domain.ImageRepository             { return NewImageRepository(s.tx) }
func (s *txStore) Users() domain.UserRepository               { return NewUserRepository(s.tx) }

// Flush makes deferred constraints fire now so violations are reported before Commit.
func (s *txStore) Flush(ctx context.Context) error {
	if _, err := s.tx.ExecContext(ctx, `SET CONSTRAINTS ALL IMMEDIATE`); err != nil {
		return translateWriteError(err)
	}
	return nil
}

func (s *txStore) Commit() error {
	return translateWriteError(s.tx.Commit())
}

func (s *txStore) Rollback() error {
	return s.tx.Rollback()
}
