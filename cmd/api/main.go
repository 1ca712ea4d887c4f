// @title Volunteer Match API
// @version 1.0
// @description Volunteer profiles, events, match scoring and registration.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"volunteermatch/config"
	"volunteermatch/internal/adapters/auth"
	"volunteermatch/internal/adapters/cache"
	httpdelivery "volunteermatch/internal/delivery/http"
	"volunteermatch/internal/delivery/http/controllers"
	"volunteermatch/internal/delivery/http/middleware"
	"volunteermatch/internal/metrics"
	"volunteermatch/internal/repository/postgres"
	"volunteermatch/internal/services"
	"volunteermatch/migrations"
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	weights, err := config.LoadScoringWeights(cfg.MatchWeightsFile)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}
	if cfg.MigrateOnStart {
		if err := migrations.Up(db, logger); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	scoreCache, closeCache, err := cache.NewScoreCache(context.Background(), cache.Config{
		Provider: cfg.CacheProvider,
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	volunteerRepo := postgres.NewVolunteerRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	matchRepo := m.InstrumentMatchRepository(postgres.NewMatchRepository(db))

	volunteerSvc := services.NewVolunteerService(volunteerRepo, cfg.ContextTimeout)
	eventSvc := services.NewEventService(eventRepo, cfg.ContextTimeout)
	matchSvc := services.NewMatchService(volunteerRepo, eventRepo, matchRepo, m.InstrumentScoreCache(scoreCache),
		weights, cfg.ScoreCacheTTL, logger, cfg.ContextTimeout)

	mux := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Volunteers: controllers.NewVolunteerController(logger, volunteerSvc, matchSvc),
		Events:     controllers.NewEventController(logger, eventSvc),
		Matches:    controllers.NewMatchController(logger, matchSvc, eventSvc),
		Verifier:   auth.NewJWTVerifier(cfg.JWTSecret),
		Metrics:    m,
		DB:         db,
		Logger:     logger,
	})
	handler := middleware.CORS(cfg.CORSOrigins, middleware.LoggingMiddleware(logger, middleware.MetricsMiddleware(m, mux)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
