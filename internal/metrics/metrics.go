package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "machine_states_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "machine_states_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "machine_states_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})

	recomputesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "machine_states_recomputes_total",
			Help: "Chart recomputations by triggering selection event.",
		},
		[]string{"event"},
	)

	recomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "machine_states_recompute_duration_seconds",
		Help:    "Time to filter the dataset and rebuild the dispatched charts.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

// StateCounter is the subset of dataset.Dataset needed to collect record
// metrics.
type StateCounter interface {
	CountByState() map[string]int
}

// recordCollector reports the loaded dataset's record counts by state on
// each scrape.
type recordCollector struct {
	data        StateCounter
	recordsDesc *prometheus.Desc
}

func (c *recordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsDesc
}

func (c *recordCollector) Collect(ch chan<- prometheus.Metric) {
	for state, n := range c.data.CountByState() {
		ch <- prometheus.MustNewConstMetric(
			c.recordsDesc,
			prometheus.GaugeValue,
			float64(n),
			state,
		)
	}
}

// NewRegistry returns a registry holding every metric, including the Go and
// process collectors, for the dataset data.
func NewRegistry(data StateCounter) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	Register(reg, data)
	return reg
}

// Register registers all metrics with reg. reg must not already hold the Go
// or process collectors, so prometheus.DefaultRegisterer cannot be used.
func Register(reg prometheus.Registerer, data StateCounter) {
	reg.MustRegister(
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Application metrics
		recomputesTotal,
		recomputeDuration,
		&recordCollector{
			data: data,
			recordsDesc: prometheus.NewDesc(
				"machine_states_records_total",
				"Number of loaded machine state intervals, partitioned by state.",
				[]string{"state"},
				nil,
			),
		},
	)
}

// Recompute observes chart recomputations; it satisfies dashboard.Observer.
type Recompute struct{}

// ObserveRecompute records one recompute triggered by event.
func (Recompute) ObserveRecompute(event string, elapsed time.Duration) {
	recomputesTotal.WithLabelValues(event).Inc()
	recomputeDuration.Observe(elapsed.Seconds())
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint,
// serving the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "/api/v1/charts/{chart}")
// so the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
