package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tphummel/machine_states/internal/metrics"
)

type fixedCounts map[string]int

func (f fixedCounts) CountByState() map[string]int { return f }

func TestRegister_RecordCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg, fixedCounts{"Idle": 3, "Working": 5})

	expected := `
# HELP machine_states_records_total Number of loaded machine state intervals, partitioned by state.
# TYPE machine_states_records_total gauge
machine_states_records_total{state="Idle"} 3
machine_states_records_total{state="Working"} 5
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "machine_states_records_total"); err != nil {
		t.Error(err)
	}
}

func TestNewRegistry_IncludesRuntimeCollectors(t *testing.T) {
	// Two registries at once, as when tests and the server both build one.
	metrics.NewRegistry(fixedCounts{})
	reg := metrics.NewRegistry(fixedCounts{"Idle": 1})

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"go_goroutines", `machine_states_records_total{state="Idle"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics output missing %q", want)
		}
	}
}

func TestRecompute_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg, fixedCounts{})

	before := gatherCounter(t, reg, "machine_states_recomputes_total", "states-changed")
	metrics.Recompute{}.ObserveRecompute("states-changed", 3*time.Millisecond)
	metrics.Recompute{}.ObserveRecompute("states-changed", 2*time.Millisecond)
	after := gatherCounter(t, reg, "machine_states_recomputes_total", "states-changed")

	if after-before != 2 {
		t.Errorf("recomputes_total delta: got %v, want 2", after-before)
	}
}

func TestMiddleware_CountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg, fixedCounts{})

	const pattern = "/test/middleware/{id}"
	h := metrics.Middleware(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test/middleware/7", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status: got %d, want 418", rec.Code)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "machine_states_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["path"] == pattern && labels["status"] == "418" && labels["method"] == "GET" {
				found = true
			}
		}
	}
	if !found {
		t.Error("no http_requests_total sample for the route pattern with status 418")
	}
}

func gatherCounter(t *testing.T, reg *prometheus.Registry, name, event string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "event" && lp.GetValue() == event {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
