package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveIntervention(t *testing.T) {
	m := New()
	m.ObserveIntervention("intervene", "commit", "rise", 10*time.Millisecond)
	m.ObserveIntervention("intervene", "commit", "", time.Millisecond)
	m.ObserveIntervention("intervene", "commit", "", time.Millisecond)

	if got := testutil.ToFloat64(m.interventions.WithLabelValues("intervene", "commit", "rise")); got != 1 {
		t.Errorf("expected 1 rise, got %v", got)
	}
	if got := testutil.ToFloat64(m.interventions.WithLabelValues("intervene", "commit", "none")); got != 2 {
		t.Errorf("expected 2 untagged, got %v", got)
	}
}

func TestObservePropagationAndRewrite(t *testing.T) {
	m := New()
	m.ObservePropagation(4, 1)
	m.ObservePropagation(2, 2)
	m.ObserveRewrite("openai", nil)
	m.ObserveRewrite("openai", errors.New("boom"))
	m.ObserveImport()
	m.SetGoalScore("contain", 0.75)

	if got := testutil.ToFloat64(m.dropped); got != 3 {
		t.Errorf("expected 3 dropped, got %v", got)
	}
	if got := testutil.ToFloat64(m.rewrites.WithLabelValues("openai", "error")); got != 1 {
		t.Errorf("expected 1 rewrite error, got %v", got)
	}
	if got := testutil.ToFloat64(m.imports); got != 1 {
		t.Errorf("expected 1 import, got %v", got)
	}
	if got := testutil.ToFloat64(m.goalScore.WithLabelValues("contain")); got != 0.75 {
		t.Errorf("expected goal score 0.75, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveImport()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wargames_world_imports_total 1") {
		t.Fatalf("expected import counter in output:\n%s", rec.Body.String())
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveImport()
	if got := testutil.ToFloat64(b.imports); got != 0 {
		t.Fatalf("expected isolated registries, got %v", got)
	}
}
