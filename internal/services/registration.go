package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

type registrationService struct {
	transactor   domain.Transactor
	eventRepo    domain.EventRepository
	participants domain.ParticipantRepository
	identity     domain.IdentityProvider
	emailService domain.EmailService
	logger       *slog.Logger
	now          func() time.Time
}

// NewRegistrationService creates a RegistrationService. emailService may be nil, in which
// case no confirmation is sent.
func NewRegistrationService(
	transactor domain.Transactor,
	eventRepo domain.EventRepository,
	participants domain.ParticipantRepository,
	identity domain.IdentityProvider,
	emailService domain.EmailService,
	logger *slog.Logger,
) domain.RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &registrationService{
		transactor:   transactor,
		eventRepo:    eventRepo,
		participants: participants,
		identity:     identity,
		emailService: emailService,
		logger:       logger,
		now:          time.Now,
	}
}

// Register admits the acting user. The event row stays locked from the capacity check
// until commit, and the participant count is re-read after the insert so the store has
// the final word on the last seat.
func (s *registrationService) Register(ctx context.Context, eventID string) (string, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}

	var (
		event *domain.Event
		user  *domain.User
	)
	err = RunInTransaction(ctx, s.transactor, s.logger, "register", func(ctx context.Context, tx domain.Tx) error {
		var err error
		event, err = loadEventForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		participant := domain.NewParticipant(user, eventID, s.now())
		if err := event.AddParticipant(participant); err != nil {
			return err
		}
		if err := tx.Participants().Create(ctx, participant); err != nil {
			return fmt.Errorf("create participant: %w", err)
		}

		count, err := tx.Participants().CountByEventID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count > event.MaxParticipants {
			return domain.ErrCapacityExceeded
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWriteConflict) && !errors.Is(err, domain.ErrCapacityExceeded):
			err = fmt.Errorf("%w: %w", domain.ErrCapacityExceeded, err)
			metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeCapacityExceeded).Inc()
		case errors.Is(err, domain.ErrCapacityExceeded):
			metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeCapacityExceeded).Inc()
		case errors.Is(err, domain.ErrDuplicateParticipant):
			metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		s.logger.Info("registration rejected", "event_id", eventID, "user_id", userID, "kind", domain.KindOf(err).String())
		return "", err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeRegistered).Inc()
	s.sendConfirmation(ctx, event, user)
	return userID, nil
}

func (s *registrationService) sendConfirmation(ctx context.Context, event *domain.Event, user *domain.User) {
	if s.emailService == nil || user.Email == "" {
		return
	}
	err := s.emailService.SendRegistrationConfirmation(ctx, &domain.RegistrationEmailData{
		Email:     user.Email,
		FirstName: user.FirstName,
		EventName: event.Name,
		EventDate: event.DateTime,
		Location:  event.Location,
	})
	if err != nil {
		s.logger.Warn("registration confirmation not sent", "event_id", event.ID, "user_id", user.ID, "error", err)
	}
}

func (s *registrationService) Cancel(ctx context.Context, eventID string) error {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	err = RunInTransaction(ctx, s.transactor, s.logger, "cancel_registration", func(ctx context.Context, tx domain.Tx) error {
		event, err := loadEventForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !event.RemoveParticipant(userID) {
			return domain.NotFoundf("user %s is not registered for event %s", userID, eventID)
		}
		if err := tx.Participants().Delete(ctx, eventID, userID); err != nil {
			return fmt.Errorf("delete participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeCancelled).Inc()
	return nil
}

func (s *registrationService) ListParticipants(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Participant, int, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	participants, total, err := s.participants.ListPageByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}
	return participants, total, nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context) ([]*domain.Event, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	eventIDs, err := s.participants.ListEventIDsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	// Fetch events one by one (N+1); a user holds few registrations.
	events := make([]*domain.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		ev, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Deleted between the two reads.
				continue
			}
			return nil, fmt.Errorf("get event for registration: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// loadEventForUpdate locks the event row and hydrates the aggregate with its participants.
func loadEventForUpdate(ctx context.Context, tx domain.Tx, eventID string) (*domain.Event, error) {
	event, err := tx.Events().GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	participants, err := tx.Participants().ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if err := event.AttachParticipants(participants); err != nil {
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}
	return event, nil
}
