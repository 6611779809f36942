package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"eventmanager/internal/domain"
)

type eventService struct {
	transactor     domain.Transactor
	eventRepo      domain.EventRepository
	categoryRepo   domain.CategoryRepository
	participants   domain.ParticipantRepository
	storage        domain.FileStorage
	cache          domain.Cache
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(
	transactor domain.Transactor,
	eventRepo domain.EventRepository,
	categoryRepo domain.CategoryRepository,
	participants domain.ParticipantRepository,
	storage domain.FileStorage,
	cache domain.Cache,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventService{
		transactor:     transactor,
		eventRepo:      eventRepo,
		categoryRepo:   categoryRepo,
		participants:   participants,
		storage:        storage,
		cache:          cache,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.contextTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.contextTimeout)
}

func (s *eventService) CreateEvent(ctx context.Context, input *domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if input == nil {
		return nil, domain.Invalidf("event input is required")
	}
	if input.CategoryID == "" {
		return nil, domain.Invalidf("category id is required")
	}
	event, err := domain.NewEvent(uuid.NewString(), input.Name, input.Description, input.DateTime,
		input.Location, input.CategoryID, input.MaxParticipants, input.ImageURLs, nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// GetEvent returns the event with its participants attached.
func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	participants, err := s.participants.ListByEventID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if err := event.AttachParticipants(participants); err != nil {
		return nil, fmt.Errorf("load event %s: %w", id, err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

// UpdateEvent applies the non-nil fields of update through the aggregate, so each field is
// validated on its own and capacity cannot drop below the registered count.
func (s *eventService) UpdateEvent(ctx context.Context, id string, update *domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if update == nil {
		return nil, domain.Invalidf("event update is required")
	}
	var event *domain.Event
	err := RunInTransaction(ctx, s.transactor, s.logger, "update_event", func(ctx context.Context, tx domain.Tx) error {
		var err error
		event, err = loadEventForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyEventUpdate(event, update); err != nil {
			return err
		}
		if update.CategoryID != nil {
			if _, err := tx.Categories().GetByID(ctx, event.CategoryID); err != nil {
				return fmt.Errorf("get category: %w", err)
			}
		}
		event.UpdatedAt = s.now()
		if err := tx.Events().Update(ctx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func applyEventUpdate(event *domain.Event, update *domain.EventUpdate) error {
	if update.Name != nil {
		if err := event.Rename(*update.Name); err != nil {
			return err
		}
	}
	if update.Description != nil {
		if err := event.UpdateDescription(*update.Description); err != nil {
			return err
		}
	}
	if update.DateTime != nil {
		if err := event.UpdateDateTime(*update.DateTime); err != nil {
			return err
		}
	}
	if update.Location != nil {
		if err := event.UpdateLocation(*update.Location); err != nil {
			return err
		}
	}
	if update.CategoryID != nil {
		if err := event.UpdateCategory(*update.CategoryID); err != nil {
			return err
		}
	}
	if update.MaxParticipants != nil {
		if err := event.UpdateCapacity(*update.MaxParticipants); err != nil {
			return err
		}
	}
	return nil
}

// DeleteEvent removes the event; participants and image rows cascade in the store. Image
// files and cache entries are cleaned up afterwards and failures there are only logged.
func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// The event row is locked while its images are listed, so an upload racing the delete
	// either commits first and is listed here, or fails on the missing event and removes its
	// own file.
	var images []*domain.Image
	err := RunInTransaction(ctx, s.transactor, s.logger, "delete_event", func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.Events().GetByIDForUpdate(ctx, id); err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		imgs, err := tx.Images().ListByEventID(ctx, id)
		if err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		if err := tx.Events().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		images = imgs
		return nil
	})
	if err != nil {
		return err
	}

	for _, img := range images {
		if err := s.storage.Delete(ctx, img.URL); err != nil {
			s.logger.Warn("event image file not removed", "event_id", id, "url", img.URL, "error", err)
		}
		if err := s.cache.Remove(ctx, domain.ImageCacheKey(id, path.Base(img.URL))); err != nil {
			s.logger.Warn("event image cache entry not removed", "event_id", id, "url", img.URL, "error", err)
		}
	}
	return nil
}
