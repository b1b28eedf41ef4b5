package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// Metrics owns a private Prometheus registry so tests can create as many
// instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	analyzerRuns     *prometheus.CounterVec
	analyzerDuration *prometheus.HistogramVec
	reportsTotal     *prometheus.CounterVec
	findingsTotal    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "automaton_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "automaton_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "automaton_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
		analyzerRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "automaton_analyzer_runs_total",
			Help: "Adapter invocations by outcome.",
		}, []string{"analyzer", "kind", "status"}),
		analyzerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "automaton_analyzer_duration_seconds",
			Help:    "Adapter run time.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"analyzer"}),
		reportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "automaton_reports_total",
			Help: "Analysis reports by detected language.",
		}, []string{"language"}),
		findingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "automaton_findings_total",
			Help: "Findings returned by detected language.",
		}, []string{"language"}),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRun records one adapter invocation.
func (m *Metrics) ObserveRun(d domain.Descriptor, status domain.RunStatus, elapsed time.Duration) {
	m.analyzerRuns.WithLabelValues(d.Name, string(d.Kind), string(status)).Inc()
	m.analyzerDuration.WithLabelValues(d.Name).Observe(elapsed.Seconds())
}

// ObserveReport records one finished analysis.
func (m *Metrics) ObserveReport(lang domain.LanguageTag, findings int) {
	m.reportsTotal.WithLabelValues(string(lang)).Inc()
	m.findingsTotal.WithLabelValues(string(lang)).Add(float64(findings))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
