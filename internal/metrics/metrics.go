// Package metrics exposes Prometheus collectors for the API and decorators that feed them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"volunteermatch/internal/domain"
)

const namespace = "volunteermatch"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	registrations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{gatherer: reg}
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "score_cache_lookups_total",
		Help:      "Score cache lookups by result (hit, miss, error).",
	}, []string{"result"})
	m.registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Confirmed-match writes by outcome (created or the gate reason that refused them).",
	}, []string{"outcome"})

	reg.MustRegister(m.httpRequests, m.httpDuration, m.cacheLookups, m.registrations)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request. route is the ServeMux pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

type instrumentedCache struct {
	next    domain.ScoreCache
	lookups *prometheus.CounterVec
}

// InstrumentScoreCache counts hits, misses and errors of c.
func (m *Metrics) InstrumentScoreCache(c domain.ScoreCache) domain.ScoreCache {
	return &instrumentedCache{next: c, lookups: m.cacheLookups}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) (*domain.MatchScore, bool, error) {
	ms, ok, err := c.next.Get(ctx, key)
	switch {
	case err != nil:
		c.lookups.WithLabelValues("error").Inc()
	case ok:
		c.lookups.WithLabelValues("hit").Inc()
	default:
		c.lookups.WithLabelValues("miss").Inc()
	}
	return ms, ok, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, score *domain.MatchScore, ttl time.Duration) error {
	return c.next.Set(ctx, key, score, ttl)
}

type instrumentedMatchRepo struct {
	domain.MatchRepository
	registrations *prometheus.CounterVec
}

// InstrumentMatchRepository counts CreateConfirmed outcomes of r.
func (m *Metrics) InstrumentMatchRepository(r domain.MatchRepository) domain.MatchRepository {
	return &instrumentedMatchRepo{MatchRepository: r, registrations: m.registrations}
}

func (r *instrumentedMatchRepo) CreateConfirmed(ctx context.Context, match *domain.Match) error {
	err := r.MatchRepository.CreateConfirmed(ctx, match)
	var ae *domain.AssignmentError
	switch {
	case err == nil:
		r.registrations.WithLabelValues("created").Inc()
	case errors.As(err, &ae):
		r.registrations.WithLabelValues(string(ae.Reason)).Inc()
	default:
		r.registrations.WithLabelValues("error").Inc()
	}
	return err
}
