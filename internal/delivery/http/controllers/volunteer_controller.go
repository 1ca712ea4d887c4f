package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"volunteermatch/internal/adapters/calendar"
	"volunteermatch/internal/delivery/http/helpers"
	"volunteermatch/internal/domain"
)

// AvailabilitySlotRequest is one weekly availability window.
type AvailabilitySlotRequest struct {
	Day   string `json:"day" validate:"required,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	Start string `json:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" validate:"required,datetime=15:04"`
}

// VolunteerRequest is the request body for POST /volunteers and PUT /volunteers/{volunteerID}.
// user_id is only honoured for admins creating a profile on behalf of someone else.
type VolunteerRequest struct {
	UserID       string                    `json:"user_id" validate:"max=200"`
	Name         string                    `json:"name" validate:"required,max=200"`
	Skills       []string                  `json:"skills" validate:"max=50,dive,required,max=100"`
	Availability []AvailabilitySlotRequest `json:"availability" validate:"max=50,dive"`
	Location     LocationRequest           `json:"location"`
	Preferences  []string                  `json:"preferences" validate:"max=50,dive,max=200"`
}

func (req VolunteerRequest) toDomain() *domain.Volunteer {
	slots := make([]domain.AvailabilitySlot, 0, len(req.Availability))
	for _, s := range req.Availability {
		slots = append(slots, domain.AvailabilitySlot{Day: domain.Weekday(s.Day), Start: s.Start, End: s.End})
	}
	now := time.Now()
	return domain.NewVolunteer(req.UserID, req.Name, req.Skills, slots, req.Location.toDomain(), req.Preferences, now, now)
}

// VolunteerSuccessResponse is the success response envelope for single-volunteer endpoints.
type VolunteerSuccessResponse struct {
	Data  *domain.Volunteer `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// VolunteerListSuccessResponse is the success response envelope for GET /volunteers.
type VolunteerListSuccessResponse struct {
	Data  helpers.Page[*domain.Volunteer] `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

// RankedEventResponse is one event scored for a volunteer.
type RankedEventResponse struct {
	Event *domain.Event `json:"event"`
	Score ScoreResponse `json:"score"`
}

// RankedEventListSuccessResponse is the success response envelope for GET /volunteers/{volunteerID}/matches.
type RankedEventListSuccessResponse struct {
	Data  helpers.Page[RankedEventResponse] `json:"data"`
	Error *helpers.APIError                 `json:"error"`
}

type VolunteerController struct {
	Logger  *slog.Logger
	Service domain.VolunteerService
	Matches domain.MatchService
	now     func() time.Time
}

func NewVolunteerController(logger *slog.Logger, svc domain.VolunteerService, matches domain.MatchService) *VolunteerController {
	return &VolunteerController{
		Logger:  logger,
		Service: svc,
		Matches: matches,
		now:     time.Now,
	}
}

// CreateVolunteer godoc
// @Summary Create a volunteer profile
// @Description Creates a profile for the authenticated user. Skills are normalised and deduplicated. Admins may set user_id to create a profile for another user.
// @Tags volunteers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param volunteer body VolunteerRequest true "Volunteer profile"
// @Success 201 {object} controllers.VolunteerSuccessResponse "data contains the created volunteer"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /volunteers [post]
func (c *VolunteerController) CreateVolunteer(w http.ResponseWriter, r *http.Request) {
	var req VolunteerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	v := req.toDomain()
	if err := c.Service.Create(r.Context(), caller, v); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, v)
}

// ListVolunteers godoc
// @Summary List volunteers
// @Tags volunteers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.VolunteerListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /volunteers [get]
func (c *VolunteerController) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	params, ok := helpers.ParsePagination(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid pagination parameters")
		return
	}
	volunteers, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(volunteers, params, total))
}

// GetVolunteer godoc
// @Summary Get a volunteer by ID
// @Tags volunteers
// @Produce json
// @Security BearerAuth
// @Param volunteerID path string true "Volunteer ID (UUID)"
// @Success 200 {object} controllers.VolunteerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /volunteers/{volunteerID} [get]
func (c *VolunteerController) GetVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "volunteerID")
	if !ok {
		return
	}
	v, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, v)
}

// UpdateVolunteer godoc
// @Summary Replace a volunteer profile
// @Description Replaces name, skills, availability, location and preferences. Only the profile owner or an admin may update. user_id is ignored.
// @Tags volunteers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param volunteerID path string true "Volunteer ID (UUID)"
// @Param volunteer body VolunteerRequest true "Volunteer profile"
// @Success 200 {object} controllers.VolunteerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /volunteers/{volunteerID} [put]
func (c *VolunteerController) UpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "volunteerID")
	if !ok {
		return
	}
	var req VolunteerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	v := req.toDomain()
	v.ID = id
	updated, err := c.Service.Update(r.Context(), caller, v)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// RankEventsForVolunteer godoc
// @Summary Rank published events for a volunteer
// @Description Scores every published event against the volunteer and returns them best first, with reasons.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param volunteerID path string true "Volunteer ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.RankedEventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /volunteers/{volunteerID}/matches [get]
func (c *VolunteerController) RankEventsForVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "volunteerID")
	if !ok {
		return
	}
	params, ok := helpers.ParsePagination(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid pagination parameters")
		return
	}
	ranked, total, err := c.Matches.RankEventsForVolunteer(r.Context(), id, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	items := make([]RankedEventResponse, 0, len(ranked))
	for _, re := range ranked {
		items = append(items, RankedEventResponse{Event: re.Event, Score: newScoreResponse(re.Score)})
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(items, params, total))
}

// VolunteerCalendar godoc
// @Summary Volunteer calendar feed
// @Description Returns the volunteer's active commitments as an iCalendar feed. Only the volunteer or an admin may read it.
// @Tags volunteers
// @Produce text/calendar
// @Security BearerAuth
// @Param volunteerID path string true "Volunteer ID (UUID)"
// @Success 200 {string} string "iCalendar document"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /volunteers/{volunteerID}/calendar.ics [get]
func (c *VolunteerController) VolunteerCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "volunteerID")
	if !ok {
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	commitments, err := c.Matches.ListCommitments(r.Context(), caller, id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	v, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="commitments.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.Render(v, commitments, c.now())))
}
