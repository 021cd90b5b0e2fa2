package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Evidence(true)
	m.Evidence(false)
	m.Evidence(true)
	m.Transition("mastered")
	m.Exercise("template")
	m.CASRetry()
	m.RateLimited("submit")
	m.Diagnosis("misconception")
	m.SetReviewsDue(7)

	if got := testutil.ToFloat64(m.evidence.WithLabelValues("pass")); got != 2 {
		t.Fatalf("pass evidence = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reviewsDue); got != 7 {
		t.Fatalf("reviews due = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.casRetries); got != 1 {
		t.Fatalf("cas retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.diagnoses.WithLabelValues("misconception")); got != 1 {
		t.Fatalf("diagnoses = %v, want 1", got)
	}
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New()
	h := m.Middleware("/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/teapot", "GET", "418")); got != 1 {
		t.Fatalf("requests = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"skillpath_http_requests_total", "skillpath_reviews_due", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Evidence(true)
	m.Transition("learning")
	m.Exercise("llm")
	m.GenerationFailed()
	m.CASRetry()
	m.RateLimited("next")
	m.SetReviewsDue(1)
	if m.Registry() != nil {
		t.Fatal("nil metrics should have no registry")
	}

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := m.Middleware("/x", next); got == nil {
		t.Fatal("nil middleware should pass through")
	}
}
