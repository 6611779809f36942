package domain

import (
	"context"
	"strings"
	"time"
)

// Event is the aggregate root for one scheduled activity and the participants registered
// for it. Participants are only reachable through the aggregate so the capacity and
// uniqueness invariants hold after every mutation.
type Event struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DateTime        time.Time `json:"date_time"`
	Location        string    `json:"location"`
	CategoryID      string    `json:"category_id"`
	MaxParticipants int       `json:"max_participants"`
	ImageURLs       []string  `json:"image_urls"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	participants []*Participant
}

// NewEvent validates the inputs and returns a new Event. The date must lie in the future
// and the optional initial participants must fit the capacity without repeating a user.
func NewEvent(id, name, description string, dateTime time.Time, location, categoryID string, maxParticipants int, imageURLs []string, participants []*Participant) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalidf("event name is required")
	}
	if maxParticipants <= 0 {
		return nil, Invalidf("max participants must be positive, got %d", maxParticipants)
	}
	if !dateTime.After(time.Now()) {
		return nil, Invalidf("event date must be in the future")
	}
	if len(participants) > maxParticipants {
		return nil, Invalidf("%d initial participants exceed capacity %d", len(participants), maxParticipants)
	}
	if dup, ok := duplicateUser(participants); ok {
		return nil, Invalidf("duplicate participant %q", dup)
	}

	e := &Event{
		ID:              id,
		Name:            name,
		Description:     strings.TrimSpace(description),
		DateTime:        dateTime,
		Location:        strings.TrimSpace(location),
		CategoryID:      categoryID,
		MaxParticipants: maxParticipants,
		ImageURLs:       append([]string(nil), imageURLs...),
	}
	if e.ImageURLs == nil {
		e.ImageURLs = []string{}
	}
	e.participants = append(make([]*Participant, 0, len(participants)), participants...)
	return e, nil
}

// AttachParticipants replaces the participant set of an event loaded from storage.
// The date is not re-validated (stored events may be in the past), but the capacity and
// uniqueness invariants are.
func (e *Event) AttachParticipants(participants []*Participant) error {
	if len(participants) > e.MaxParticipants {
		return Invalidf("event %s holds %d participants over capacity %d", e.ID, len(participants), e.MaxParticipants)
	}
	if dup, ok := duplicateUser(participants); ok {
		return Invalidf("event %s holds duplicate participant %q", e.ID, dup)
	}
	e.participants = append(make([]*Participant, 0, len(participants)), participants...)
	return nil
}

// Participants returns a copy of the current participant list in registration order.
func (e *Event) Participants() []*Participant {
	return append([]*Participant(nil), e.participants...)
}

// ParticipantCount returns the number of registered participants.
func (e *Event) ParticipantCount() int {
	return len(e.participants)
}

// IsFull reports whether no seat is left.
func (e *Event) IsFull() bool {
	return len(e.participants) >= e.MaxParticipants
}

// HasParticipant reports whether userID is registered.
func (e *Event) HasParticipant(userID string) bool {
	return e.indexOf(userID) >= 0
}

// AddParticipant admits p if a seat is free and the user is not registered yet.
// Persisting the participant is the caller's job.
func (e *Event) AddParticipant(p *Participant) error {
	if p == nil || strings.TrimSpace(p.UserID) == "" {
		return Invalidf("participant user id is required")
	}
	if e.IsFull() {
		return ErrCapacityExceeded
	}
	if e.HasParticipant(p.UserID) {
		return ErrDuplicateParticipant
	}
	e.participants = append(e.participants, p)
	return nil
}

// RemoveParticipant removes the participant with userID and reports whether one was found.
func (e *Event) RemoveParticipant(userID string) bool {
	i := e.indexOf(userID)
	if i < 0 {
		return false
	}
	e.participants = append(e.participants[:i], e.participants[i+1:]...)
	return true
}

// Rename sets a new non-empty name.
func (e *Event) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalidf("event name is required")
	}
	e.Name = name
	return nil
}

// UpdateDescription sets a new non-empty description.
func (e *Event) UpdateDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return Invalidf("event description is required")
	}
	e.Description = description
	return nil
}

// UpdateDateTime moves the event to a new date, which must be in the future.
func (e *Event) UpdateDateTime(dateTime time.Time) error {
	if !dateTime.After(time.Now()) {
		return Invalidf("event date must be in the future")
	}
	e.DateTime = dateTime
	return nil
}

// UpdateLocation sets a new non-empty location.
func (e *Event) UpdateLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return Invalidf("event location is required")
	}
	e.Location = location
	return nil
}

// UpdateCategory points the event at another category.
func (e *Event) UpdateCategory(categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return Invalidf("category id is required")
	}
	e.CategoryID = categoryID
	return nil
}

// UpdateCapacity changes the seat limit. It cannot drop below the current participant count.
func (e *Event) UpdateCapacity(maxParticipants int) error {
	if maxParticipants <= 0 {
		return Invalidf("max participants must be positive, got %d", maxParticipants)
	}
	if maxParticipants < len(e.participants) {
		return Invalidf("max participants %d is below the %d registered participants", maxParticipants, len(e.participants))
	}
	e.MaxParticipants = maxParticipants
	return nil
}

func (e *Event) indexOf(userID string) int {
	for i, p := range e.participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func duplicateUser(participants []*Participant) (string, bool) {
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, ok := seen[p.UserID]; ok {
			return p.UserID, true
		}
		seen[p.UserID] = struct{}{}
	}
	return "", false
}

// EventUpdate carries the optional fields of a partial event update.
type EventUpdate struct {
	Name            *string
	Description     *string
	DateTime        *time.Time
	Location        *string
	CategoryID      *string
	MaxParticipants *int
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIDForUpdate loads the event row and locks it until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	ExistsWithCategory(ctx context.Context, categoryID string) (bool, error)
	AppendImageURL(ctx context.Context, eventID, url string) error
	RemoveImageURL(ctx context.Context, eventID, url string) error
}

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, input *CreateEventInput) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, id string, update *EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// CreateEventInput holds the fields needed to create an event.
type CreateEventInput struct {
	Name            string
	Description     string
	DateTime        time.Time
	Location        string
	CategoryID      string
	MaxParticipants int
	ImageURLs       []string
}
