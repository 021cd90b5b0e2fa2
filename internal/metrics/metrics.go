// Package metrics exposes Prometheus metrics for the tutoring service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skillpath"

// Metrics owns a private registry. All methods are safe on a nil receiver,
// which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	evidence         *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	exercises        *prometheus.CounterVec
	generationErrors prometheus.Counter
	casRetries       prometheus.Counter
	rateLimited      *prometheus.CounterVec
	diagnoses        *prometheus.CounterVec
	reviewsDue       prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evidence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_total",
			Help:      "Graded attempts integrated, by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mastery_transitions_total",
			Help:      "Mastery status changes, by target status.",
		}, []string{"to"}),
		exercises: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exercises_generated_total",
			Help:      "Exercises served, by generator source.",
		}, []string{"source"}),
		generationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exercise_generation_failures_total",
			Help:      "Recommendations returned without content.",
		}),
		casRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mastery_cas_retries_total",
			Help:      "Mastery writes retried after a version conflict.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by action.",
		}, []string{"action"}),
		diagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnoses_total",
			Help:      "Wrong answers diagnosed, by category.",
		}, []string{"category"}),
		reviewsDue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reviews_due",
			Help:      "Mastery states whose next review is at or before the last scan.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.evidence, m.transitions, m.exercises, m.generationErrors,
		m.casRetries, m.rateLimited, m.diagnoses, m.reviewsDue, m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Evidence(passed bool) {
	if m == nil {
		return
	}
	outcome := "fail"
	if passed {
		outcome = "pass"
	}
	m.evidence.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(to string) {
	if m != nil {
		m.transitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) Exercise(source string) {
	if m != nil {
		m.exercises.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) GenerationFailed() {
	if m != nil {
		m.generationErrors.Inc()
	}
}

func (m *Metrics) CASRetry() {
	if m != nil {
		m.casRetries.Inc()
	}
}

func (m *Metrics) RateLimited(action string) {
	if m != nil {
		m.rateLimited.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) Diagnosis(category string) {
	if m != nil {
		m.diagnoses.WithLabelValues(category).Inc()
	}
}

// SetReviewsDue publishes the latest review scan count.
func (m *Metrics) SetReviewsDue(n int) {
	if m != nil {
		m.reviewsDue.Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records count and latency for every request to route.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
