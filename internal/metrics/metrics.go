package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "careers",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careers",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careers",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careers",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careers",
			Subsystem: "applications",
			Name:      "submissions_total",
			Help:      "Job application submissions by outcome.",
		},
		[]string{"outcome"},
	)

	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careers",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Requests that failed because the store was unavailable.",
		},
		[]string{"route"},
	)

	storeHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "careers",
			Subsystem: "store",
			Name:      "healthy",
			Help:      "1 when the last store health check succeeded.",
		},
	)

	liveClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "careers",
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Connected admin live-feed clients.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		loginAttempts,
		submissions,
		storeErrors,
		storeHealthy,
		liveClients,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordLogin counts a login attempt; outcome is success, unauthorized, limited or error.
func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts a submission; outcome is stored, invalid or error.
func RecordSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// RecordStoreError counts a request that failed with an unavailable store.
func RecordStoreError(route string) {
	storeErrors.WithLabelValues(route).Inc()
}

func SetStoreHealthy(ok bool) {
	if ok {
		storeHealthy.Set(1)
		return
	}
	storeHealthy.Set(0)
}

func SetLiveClients(n int) { liveClients.Set(float64(n)) }
