package domain

import (
	"context"
	"time"
)

// Participant is a user's registration for one event. Name and date of birth are copied
// from the user at registration time.
// swagger:model Participant
type Participant struct {
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	RegisteredAt time.Time `json:"registered_at"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DateOfBirth  time.Time `json:"date_of_birth"`
}

// NewParticipant snapshots user as a participant of eventID registered at registeredAt.
func NewParticipant(user *User, eventID string, registeredAt time.Time) *Participant {
	return &Participant{
		UserID:       user.ID,
		EventID:      eventID,
		RegisteredAt: registeredAt,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		DateOfBirth:  user.DateOfBirth,
	}
}

// ParticipantRepository defines storage operations for participants. (user_id, event_id)
// is the natural key and must be unique in the store.
type ParticipantRepository interface {
	Create(ctx context.Context, p *Participant) error
	Delete(ctx context.Context, eventID, userID string) error
	ListByEventID(ctx context.Context, eventID string) ([]*Participant, error)
	ListPageByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*Participant, int, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	ListEventIDsByUserID(ctx context.Context, userID string) ([]string, error)
}

// RegistrationService registers and cancels the acting user's participation in events.
type RegistrationService interface {
	// Register admits the acting user to the event and returns the user id.
	Register(ctx context.Context, eventID string) (string, error)
	Cancel(ctx context.Context, eventID string) error
	ListParticipants(ctx context.Context, eventID string, params PaginationParams) ([]*Participant, int, error)
	ListMyRegistrations(ctx context.Context) ([]*Event, error)
}
