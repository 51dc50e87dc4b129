package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry guarda los collectors Prometheus propios de la aplicación.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sports_portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sports_portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	reviewSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sports_portal",
			Subsystem: "review",
			Name:      "submissions_total",
			Help:      "Reviewable records created, by kind.",
		},
		[]string{"kind"},
	)

	reviewTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sports_portal",
			Subsystem: "review",
			Name:      "transitions_total",
			Help:      "Transition attempts by kind, requested status and outcome.",
		},
		[]string{"kind", "status", "outcome"},
	)

	ratingComputations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sports_portal",
			Subsystem: "rating",
			Name:      "computations_total",
			Help:      "Athlete ratings computed.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		reviewSubmissions,
		reviewTransitions,
		ratingComputations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler devuelve un handler HTTP que expone las métricas registradas.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordSubmission(kind string) {
	reviewSubmissions.WithLabelValues(kind).Inc()
}

// RecordTransition cuenta un intento de transición; outcome es "ok" o el kind del error.
func RecordTransition(kind, status, outcome string) {
	reviewTransitions.WithLabelValues(kind, status, outcome).Inc()
}

func RecordRating() {
	ratingComputations.Inc()
}

// InstrumentHandler envuelve el router con métricas HTTP.
// El label route usa el patrón de chi y no el path con ids.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
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
