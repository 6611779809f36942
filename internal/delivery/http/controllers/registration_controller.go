package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

// RegistrationResponse is returned after a successful registration.
type RegistrationResponse struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}

// ParticipantResponse is the public representation of a participant.
type ParticipantResponse struct {
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DateOfBirth  string    `json:"date_of_birth"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toParticipantResponse(p *domain.Participant) ParticipantResponse {
	resp := ParticipantResponse{
		UserID:       p.UserID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		RegisteredAt: p.RegisteredAt,
	}
	if !p.DateOfBirth.IsZero() {
		resp.DateOfBirth = p.DateOfBirth.Format(time.DateOnly)
	}
	return resp
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Registers the authenticated user. Fails with 409 when the event is full or the user is already registered.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} helpers.APIResponse "data contains event_id and user_id"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict, capacity_exceeded"
// @Router /events/{eventID}/participants [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, err := c.Service.Register(r.Context(), eventID)
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RegistrationResponse{EventID: eventID, UserID: userID})
}

// Cancel godoc
// @Summary Cancel my registration
// @Tags registrations
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "No Content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/participants/me [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Cancel(r.Context(), r.PathValue("eventID")); err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants godoc
// @Summary List the participants of an event
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/participants [get]
func (c *RegistrationController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	participants, total, err := c.Service.ListParticipants(r.Context(), r.PathValue("eventID"), params)
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	items := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		items = append(items, toParticipantResponse(p))
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.ListResponse{
		Items:      items,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// ListMyRegistrations godoc
// @Summary List the events I am registered for
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the events"
// @Router /users/me/registrations [get]
func (c *RegistrationController) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListMyRegistrations(r.Context())
	if err != nil {
		helpers.WriteError(w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, toEventResponses(events))
}
