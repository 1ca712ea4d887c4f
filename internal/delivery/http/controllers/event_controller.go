package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"volunteermatch/internal/delivery/http/helpers"
	"volunteermatch/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{eventID}.
// Omit capacity for an unlimited event. Timezone is an IANA name and defaults to UTC.
type EventRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	RequiredSkills []string        `json:"required_skills" validate:"max=50,dive,required,max=100"`
	Urgency        string          `json:"urgency" validate:"required,oneof=low medium high critical"`
	Capacity       *int            `json:"capacity" validate:"omitempty,min=1"`
	StartAt        time.Time       `json:"start_at" validate:"required"`
	EndAt          time.Time       `json:"end_at" validate:"required,gtfield=StartAt"`
	Timezone       string          `json:"timezone" validate:"omitempty,timezone"`
	Location       LocationRequest `json:"location"`
}

func (req EventRequest) toDomain() *domain.Event {
	now := time.Now()
	e := domain.NewEvent(req.Name, req.RequiredSkills, domain.Urgency(req.Urgency), req.Capacity,
		req.StartAt, req.EndAt, req.Location.toDomain(), now, now)
	if req.Timezone != "" {
		e.Timezone = req.Timezone
	}
	return e
}

// SetEventStatusRequest is the request body for PATCH /events/{eventID}/status.
type SetEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published cancelled"`
}

// EventSuccessResponse is the success response envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for GET /events.
type EventListSuccessResponse struct {
	Data  helpers.Page[*domain.Event] `json:"data"`
	Error *helpers.APIError           `json:"error"`
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
// @Description Creates a draft event. Publish it with PATCH /events/{eventID}/status before volunteers can be matched. Admin only.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	e := req.toDomain()
	if err := c.Service.Create(r.Context(), e); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, e)
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(draft, published, cancelled)
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params, ok := helpers.ParsePagination(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid pagination parameters")
		return
	}
	filter := domain.EventFilter{Status: domain.EventStatus(r.URL.Query().Get("status"))}
	events, total, err := c.Service.List(r.Context(), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(events, params, total))
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	e, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, e)
}

// UpdateEvent godoc
// @Summary Replace event details
// @Description Replaces name, skills, urgency, capacity, times and location. Status and registrant count are unchanged. Capacity may not drop below the current registrant count. Admin only.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body EventRequest true "Event data"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	e := req.toDomain()
	e.ID = id
	updated, err := c.Service.Update(r.Context(), e)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// SetEventStatus godoc
// @Summary Publish, unpublish or cancel an event
// @Description Cancelled events cannot be reopened. Admin only.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body SetEventStatusRequest true "New status"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/status [patch]
func (c *EventController) SetEventStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req SetEventStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	e, err := c.Service.SetStatus(r.Context(), id, domain.EventStatus(req.Status))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, e)
}
