package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"volunteermatch/internal/delivery/http/helpers"
	"volunteermatch/internal/delivery/http/middleware"
	"volunteermatch/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	volunteerID = "11111111-1111-4111-8111-111111111111"
	eventID     = "22222222-2222-4222-8222-222222222222"
	matchID     = "33333333-3333-4333-8333-333333333333"
)

var (
	volunteerCaller = domain.Principal{UserID: "user-1"}
	adminCaller     = domain.Principal{UserID: "admin-1", Roles: []string{domain.RoleAdmin}}
)

type fakeVolunteerService struct {
	volunteer *domain.Volunteer
	list      []*domain.Volunteer
	total     int
	err       error

	gotCaller domain.Principal
	gotParams domain.PaginationParams
}

func (f *fakeVolunteerService) Create(_ context.Context, caller domain.Principal, v *domain.Volunteer) error {
	f.gotCaller = caller
	if f.err != nil {
		return f.err
	}
	v.ID = volunteerID
	if v.UserID == "" {
		v.UserID = caller.UserID
	}
	return nil
}

func (f *fakeVolunteerService) GetByID(_ context.Context, id string) (*domain.Volunteer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.volunteer, nil
}

func (f *fakeVolunteerService) List(_ context.Context, params domain.PaginationParams) ([]*domain.Volunteer, int, error) {
	f.gotParams = params
	return f.list, f.total, f.err
}

func (f *fakeVolunteerService) Update(_ context.Context, caller domain.Principal, v *domain.Volunteer) (*domain.Volunteer, error) {
	f.gotCaller = caller
	if f.err != nil {
		return nil, f.err
	}
	return v, nil
}

type fakeEventService struct {
	event *domain.Event
	list  []*domain.Event
	total int
	err   error

	gotFilter domain.EventFilter
	gotStatus domain.EventStatus
	gotEvent  *domain.Event
}

func (f *fakeEventService) Create(_ context.Context, e *domain.Event) error {
	f.gotEvent = e
	if f.err != nil {
		return f.err
	}
	e.ID = eventID
	return nil
}

func (f *fakeEventService) GetByID(_ context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) List(_ context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.gotFilter = filter
	return f.list, f.total, f.err
}

func (f *fakeEventService) Update(_ context.Context, e *domain.Event) (*domain.Event, error) {
	f.gotEvent = e
	if f.err != nil {
		return nil, f.err
	}
	return e, nil
}

func (f *fakeEventService) SetStatus(_ context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	f.gotStatus = status
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: id, Status: status}, nil
}

type fakeMatchService struct {
	rankedVolunteers []domain.RankedVolunteer
	rankedEvents     []domain.RankedEvent
	total            int
	matches          []*domain.Match
	eligibility      *domain.Eligibility
	match            *domain.Match
	autoResult       *domain.AutoAssignResult
	commitments      []domain.Commitment
	err              error

	gotParams  domain.PaginationParams
	gotOpts    domain.AutoMatchOptions
	gotCaller  domain.Principal
	gotStatus  domain.MatchStatus
	rankCalled bool
}

func (f *fakeMatchService) RankVolunteersForEvent(_ context.Context, _ string, params domain.PaginationParams) ([]domain.RankedVolunteer, int, error) {
	f.rankCalled = true
	f.gotParams = params
	return f.rankedVolunteers, f.total, f.err
}

func (f *fakeMatchService) RankEventsForVolunteer(_ context.Context, _ string, params domain.PaginationParams) ([]domain.RankedEvent, int, error) {
	f.gotParams = params
	return f.rankedEvents, f.total, f.err
}

func (f *fakeMatchService) ListEventMatches(_ context.Context, _ string) ([]*domain.Match, error) {
	return f.matches, f.err
}

func (f *fakeMatchService) PreviewAssignment(_ context.Context, _, _ string) (*domain.Eligibility, error) {
	return f.eligibility, f.err
}

func (f *fakeMatchService) RequestMatch(_ context.Context, caller domain.Principal, _, _ string) (*domain.Match, error) {
	f.gotCaller = caller
	return f.match, f.err
}

func (f *fakeMatchService) UpdateMatchStatus(_ context.Context, caller domain.Principal, _ string, status domain.MatchStatus) (*domain.Match, error) {
	f.gotCaller = caller
	f.gotStatus = status
	return f.match, f.err
}

func (f *fakeMatchService) AutoMatch(_ context.Context, _ string, opts domain.AutoMatchOptions) (*domain.AutoAssignResult, error) {
	f.gotOpts = opts
	return f.autoResult, f.err
}

func (f *fakeMatchService) ListCommitments(_ context.Context, caller domain.Principal, _ string) ([]domain.Commitment, error) {
	f.gotCaller = caller
	return f.commitments, f.err
}

// serve routes req through a mux registered with pattern so path values resolve.
func serve(pattern string, handler http.HandlerFunc, req *http.Request, caller *domain.Principal) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	if caller != nil {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), *caller))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func newRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData decodes the envelope and unmarshals its data into dest.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *helpers.APIError {
	t.Helper()
	var env helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error
}
