package controllers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"volunteermatch/internal/adapters/export"
	"volunteermatch/internal/delivery/http/helpers"
	"volunteermatch/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RankedVolunteerResponse is one volunteer scored for an event.
type RankedVolunteerResponse struct {
	Volunteer *domain.Volunteer `json:"volunteer"`
	Score     ScoreResponse     `json:"score"`
}

// RankedVolunteerListSuccessResponse is the success response envelope for GET /events/{eventID}/matches?rank=true.
type RankedVolunteerListSuccessResponse struct {
	Data  helpers.Page[RankedVolunteerResponse] `json:"data"`
	Error *helpers.APIError                     `json:"error"`
}

// MatchListSuccessResponse is the success response envelope for GET /events/{eventID}/matches.
type MatchListSuccessResponse struct {
	Data  []*domain.Match   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MatchSuccessResponse is the success response envelope for single-match endpoints.
type MatchSuccessResponse struct {
	Data  *domain.Match     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EligibilityResponse is the preview of assigning a volunteer to an event.
type EligibilityResponse struct {
	VolunteerID string                  `json:"volunteer_id"`
	EventID     string                  `json:"event_id"`
	Score       ScoreResponse           `json:"score"`
	Allowed     bool                    `json:"allowed"`
	Failure     *domain.AssignmentError `json:"failure,omitempty"`
}

// EligibilitySuccessResponse is the success response envelope for GET /events/{eventID}/eligibility/{volunteerID}.
type EligibilitySuccessResponse struct {
	Data  EligibilityResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// AutoMatchRequest is the request body for POST /events/{eventID}/auto-match.
// max_matches 0 means no limit.
type AutoMatchRequest struct {
	MinScore   int  `json:"min_score" validate:"gte=0,lte=100"`
	MaxMatches int  `json:"max_matches" validate:"gte=0"`
	DryRun     bool `json:"dry_run"`
}

// AutoMatchSuccessResponse is the success response envelope for POST /events/{eventID}/auto-match.
type AutoMatchSuccessResponse struct {
	Data  *domain.AutoAssignResult `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// CreateMatchRequest is the request body for POST /matches.
type CreateMatchRequest struct {
	VolunteerID string `json:"volunteer_id" validate:"required,uuid"`
	EventID     string `json:"event_id" validate:"required,uuid"`
}

// UpdateMatchRequest is the request body for PATCH /matches/{matchID}.
type UpdateMatchRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed declined completed"`
}

type MatchController struct {
	Logger  *slog.Logger
	Service domain.MatchService
	Events  domain.EventService
}

func NewMatchController(logger *slog.Logger, svc domain.MatchService, events domain.EventService) *MatchController {
	return &MatchController{
		Logger:  logger,
		Service: svc,
		Events:  events,
	}
}

// ListEventMatches godoc
// @Summary Rank volunteers for an event, or list its matches
// @Description With rank=true, scores every volunteer against the event and returns them best first with reasons (paginated). Otherwise returns the matches stored for the event.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param rank query bool false "Rank all volunteers instead of listing stored matches"
// @Param page query int false "Page number (default 1, rank=true only)"
// @Param page_size query int false "Page size (default 20, max 100, rank=true only)"
// @Success 200 {object} controllers.RankedVolunteerListSuccessResponse "rank=true"
// @Success 200 {object} controllers.MatchListSuccessResponse "rank=false"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/matches [get]
func (c *MatchController) ListEventMatches(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	rank := false
	if raw := r.URL.Query().Get("rank"); raw != "" {
		var err error
		if rank, err = strconv.ParseBool(raw); err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "rank must be a boolean")
			return
		}
	}

	if !rank {
		matches, err := c.Service.ListEventMatches(r.Context(), eventID)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		if matches == nil {
			matches = []*domain.Match{}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, matches)
		return
	}

	params, ok := helpers.ParsePagination(r)
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid pagination parameters")
		return
	}
	ranked, total, err := c.Service.RankVolunteersForEvent(r.Context(), eventID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	items := make([]RankedVolunteerResponse, 0, len(ranked))
	for _, rv := range ranked {
		items = append(items, RankedVolunteerResponse{Volunteer: rv.Volunteer, Score: newScoreResponse(rv.Score)})
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(items, params, total))
}

// PreviewEligibility godoc
// @Summary Preview assigning a volunteer to an event
// @Description Returns the score and whether the assignment would be allowed, with the refusal reason and conflicting commitments when it would not. Nothing is persisted.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param volunteerID path string true "Volunteer ID (UUID)"
// @Success 200 {object} controllers.EligibilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/eligibility/{volunteerID} [get]
func (c *MatchController) PreviewEligibility(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	volunteerID, ok := helpers.PathUUID(w, r, "volunteerID")
	if !ok {
		return
	}
	el, err := c.Service.PreviewAssignment(r.Context(), volunteerID, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EligibilityResponse{
		VolunteerID: el.VolunteerID,
		EventID:     el.EventID,
		Score:       newScoreResponse(el.Score),
		Allowed:     el.Allowed,
		Failure:     el.Failure,
	})
}

// AutoMatch godoc
// @Summary Auto-assign the best volunteers to an event
// @Description Walks volunteers best first and confirms each one that clears min_score and every registration check, stopping at max_matches or capacity. With dry_run nothing is persisted. Admin only.
// @Tags matching
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body AutoMatchRequest true "Auto-match options"
// @Success 200 {object} controllers.AutoMatchSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/auto-match [post]
func (c *MatchController) AutoMatch(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req AutoMatchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.AutoMatch(r.Context(), eventID, domain.AutoMatchOptions{
		MinScore:   req.MinScore,
		MaxMatches: req.MaxMatches,
		DryRun:     req.DryRun,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// CreateMatch godoc
// @Summary Register a volunteer for an event
// @Description Creates a confirmed match after checking registration, capacity, event status and time conflicts. Volunteers may register themselves; admins may register anyone.
// @Tags matching
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateMatchRequest true "Volunteer and event"
// @Success 201 {object} controllers.MatchSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered, event_full, event_not_open or time_conflict (with conflicts)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /matches [post]
func (c *MatchController) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	m, err := c.Service.RequestMatch(r.Context(), caller, req.VolunteerID, req.EventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, m)
}

// UpdateMatch godoc
// @Summary Change a match's status
// @Description Allowed transitions: pending to confirmed or declined, confirmed to declined or completed. Confirming re-runs the registration checks.
// @Tags matching
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param matchID path string true "Match ID (UUID)"
// @Param body body UpdateMatchRequest true "New status"
// @Success 200 {object} controllers.MatchSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_full, event_not_open or time_conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /matches/{matchID} [patch]
func (c *MatchController) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := helpers.PathUUID(w, r, "matchID")
	if !ok {
		return
	}
	var req UpdateMatchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	m, err := c.Service.UpdateMatchStatus(r.Context(), caller, matchID, domain.MatchStatus(req.Status))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// ExportRoster godoc
// @Summary Download an event roster
// @Description Returns every volunteer ranked for the event as an xlsx workbook, with scores, reasons and current match status. Admin only.
// @Tags matching
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {file} file "xlsx workbook"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/roster.xlsx [get]
func (c *MatchController) ExportRoster(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	e, err := c.Events.GetByID(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	ranked, _, err := c.Service.RankVolunteersForEvent(r.Context(), eventID, domain.PaginationParams{Page: 1})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	matches, err := c.Service.ListEventMatches(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRoster(&buf, e, ranked, matches); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="roster-`+eventID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
