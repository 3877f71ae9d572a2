package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors the server exports.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ImagesIngestedTotal    prometheus.Counter
	ImagesDeletedTotal     prometheus.Counter
	DuplicatesRemovedTotal prometheus.Counter
}

// NewMetrics creates and registers all collectors on the registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wtag_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wtag_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ImagesIngestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wtag_images_ingested_total",
			Help: "Images accepted by intake",
		}),
		ImagesDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wtag_images_deleted_total",
			Help: "Images removed by explicit deletion",
		}),
		DuplicatesRemovedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wtag_duplicate_records_removed_total",
			Help: "Metadata records removed by the dedup repair pass",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ImagesIngestedTotal,
		m.ImagesDeletedTotal,
		m.DuplicatesRemovedTotal,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
// routePattern should yield the route template, not the raw path, to keep
// cardinality bounded.
func HTTPMetricsMiddleware(metrics *Metrics, routePattern func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := routePattern(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler returns the Prometheus scrape handler for the registry.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
