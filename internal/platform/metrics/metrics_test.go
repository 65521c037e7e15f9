package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCountsByStatus(t *testing.T) {
	c := New()
	c.Record(http.StatusOK, 20*time.Millisecond)
	c.Record(http.StatusOK, 10*time.Millisecond)
	c.Record(http.StatusConflict, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("200")); got != 2 {
		t.Fatalf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("409")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestRecordTransitionOutcome(t *testing.T) {
	c := New()
	c.RecordTransition("confirm_review", nil)
	c.RecordTransition("confirm_review", errors.New("not permitted"))
	c.RecordTransition("confirm_review", errors.New("not permitted"))

	if got := testutil.ToFloat64(c.transitions.WithLabelValues("confirm_review", "applied")); got != 1 {
		t.Fatalf("expected 1 applied transition, got %v", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("confirm_review", "rejected")); got != 2 {
		t.Fatalf("expected 2 rejected transitions, got %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.Record(http.StatusOK, time.Millisecond)
	c.RecordCalculation("normal")
	c.RecordTransition("acknowledge_kpi", nil)
	c.RecordAnomaly()
	if c.Registry() != nil {
		t.Fatal("expected nil registry for nil collector")
	}
}

func TestHandlerExposesCalculations(t *testing.T) {
	c := New()
	c.RecordCalculation("goal_weight")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `perfreview_rating_calculations_total{method="goal_weight"} 1`) {
		t.Fatalf("expected calculation counter in output, got %s", rec.Body.String())
	}
}
