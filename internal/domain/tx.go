package domain

import "context"

// Transactor starts store transactions.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a store transaction exposing transaction-scoped repositories.
type Tx interface {
	Events() EventRepository
	Participants() ParticipantRepository
	Categories() CategoryRepository
	Images() ImageRepository
	Users() UserRepository
	// Flush forces pending (deferred) writes and constraint checks to run so that
	// violations surface before Commit.
	Flush(ctx context.Context) error
	Commit() error
	Rollback() error
}
