package controllers

import (
	"net/http"

	"volunteermatch/internal/delivery/http/helpers"
	"volunteermatch/internal/delivery/http/middleware"
	"volunteermatch/internal/domain"
)

// requirePrincipal returns the authenticated caller or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return p, ok
}

// ScoreResponse is a match score with its factors rendered as marker-prefixed reasons.
// swagger:model ScoreResponse
type ScoreResponse struct {
	domain.MatchScore
	Reasons []string `json:"reasons"`
}

func newScoreResponse(s domain.MatchScore) ScoreResponse {
	return ScoreResponse{MatchScore: s, Reasons: s.Reasons()}
}

// LocationRequest is the city/state pair accepted in request bodies.
type LocationRequest struct {
	City  string `json:"city" validate:"max=100"`
	State string `json:"state" validate:"max=100"`
}

func (l LocationRequest) toDomain() domain.Location {
	return domain.Location{City: l.City, State: l.State}
}
