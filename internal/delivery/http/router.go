package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "volunteermatch/docs"
	"volunteermatch/internal/delivery/http/controllers"
	"volunteermatch/internal/delivery/http/helpers"
	"volunteermatch/internal/delivery/http/middleware"
	"volunteermatch/internal/domain"
	"volunteermatch/internal/metrics"
)

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps groups what NewRouter needs to register every route.
type RouterDeps struct {
	Volunteers *controllers.VolunteerController
	Events     *controllers.EventController
	Matches    *controllers.MatchController
	Verifier   domain.TokenVerifier
	Metrics    *metrics.Metrics
	DB         Pinger
	Logger     *slog.Logger
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.Verifier, d.Logger)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(h))
	}

	// Volunteers
	mux.HandleFunc("POST /volunteers", auth(d.Volunteers.CreateVolunteer))
	mux.HandleFunc("GET /volunteers", auth(d.Volunteers.ListVolunteers))
	mux.HandleFunc("GET /volunteers/{volunteerID}", auth(d.Volunteers.GetVolunteer))
	mux.HandleFunc("PUT /volunteers/{volunteerID}", auth(d.Volunteers.UpdateVolunteer))
	mux.HandleFunc("GET /volunteers/{volunteerID}/matches", auth(d.Volunteers.RankEventsForVolunteer))
	mux.HandleFunc("GET /volunteers/{volunteerID}/calendar.ics", auth(d.Volunteers.VolunteerCalendar))

	// Events
	mux.HandleFunc("POST /events", admin(d.Events.CreateEvent))
	mux.HandleFunc("GET /events", auth(d.Events.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(d.Events.GetEvent))
	mux.HandleFunc("PUT /events/{eventID}", admin(d.Events.UpdateEvent))
	mux.HandleFunc("PATCH /events/{eventID}/status", admin(d.Events.SetEventStatus))

	// Matching
	mux.HandleFunc("GET /events/{eventID}/matches", auth(d.Matches.ListEventMatches))
	mux.HandleFunc("POST /events/{eventID}/auto-match", admin(d.Matches.AutoMatch))
	mux.HandleFunc("GET /events/{eventID}/eligibility/{volunteerID}", auth(d.Matches.PreviewEligibility))
	mux.HandleFunc("GET /events/{eventID}/roster.xlsx", admin(d.Matches.ExportRoster))
	mux.HandleFunc("POST /matches", auth(d.Matches.CreateMatch))
	mux.HandleFunc("PATCH /matches/{matchID}", auth(d.Matches.UpdateMatch))

	// Operations
	mux.HandleFunc("GET /healthz", healthz(d.DB, d.Logger))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// healthz answers 200 when the database responds within two seconds.
func healthz(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "err", err)
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "database unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
