package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name            string    `json:"name" validate:"required,max=200"`
	Description     string    `json:"description" validate:"max=5000"`
	DateTime        time.Time `json:"date_time" validate:"required"`
	Location        string    `json:"location" validate:"required,max=300"`
	CategoryID      string    `json:"category_id" validate:"required"`
	MaxParticipants int       `json:"max_participants" validate:"min=1"`
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. Omitted fields are unchanged.
type UpdateEventRequest struct {
	Name            *string    `json:"name" validate:"omitnil,max=200"`
	Description     *string    `json:"description" validate:"omitnil,max=5000"`
	DateTime        *time.Time `json:"date_time"`
	Location        *string    `json:"location" validate:"omitnil,max=300"`
	CategoryID      *string    `json:"category_id"`
	MaxParticipants *int       `json:"max_participants" validate:"omitnil,min=1"`
}

// EventResponse is the public representation of an event.
// swagger:model EventResponse
type EventResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	DateTime         time.Time `json:"date_time"`
	Location         string    `json:"location"`
	CategoryID       string    `json:"category_id"`
	MaxParticipants  int       `json:"max_participants"`
	ParticipantCount *int      `json:"participant_count,omitempty"`
	ImageURLs        []string  `json:"image_urls"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toEventResponse(e *domain.Event) EventResponse {
	urls := e.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return EventResponse{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		DateTime:        e.DateTime,
		Location:        e.Location,
		CategoryID:      e.CategoryID,
		MaxParticipants: e.MaxParticipants,
		ImageURLs:       urls,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// toEventDetailResponse also reports the participant count, which is only known when the
// participants were loaded with the event.
func toEventDetailResponse(e *domain.Event) EventResponse {
	resp := toEventResponse(e)
	count := e.ParticipantCount()
	resp.ParticipantCount = &count
	return resp
}

func toEventResponses(events []*domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, validation_error"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (category)"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), &domain.CreateEventInput{
		Name:            req.Name,
		Description:     req.Description,
		DateTime:        req.DateTime,
		Location:        req.Location,
		CategoryID:      req.CategoryID,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, toEventDetailResponse(event))
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), params)
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.ListResponse{
		Items:      toEventResponses(events),
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, toEventDetailResponse(event))
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially updates an event. Capacity may not drop below the current participant count.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body UpdateEventRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), r.PathValue("eventID"), &domain.EventUpdate{
		Name:            req.Name,
		Description:     req.Description,
		DateTime:        req.DateTime,
		Location:        req.Location,
		CategoryID:      req.CategoryID,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, toEventDetailResponse(event))
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event with its participants and images.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No Content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("eventID")); err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
