package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP server metrics.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	InFlight       prometheus.Gauge
	RateLimited    prometheus.Counter
}

// New creates and registers the HTTP metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the HTTP metrics on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seqguard_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 30, 120, 360},
		}, []string{"method", "route", "status"}),

		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "seqguard_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqguard_http_rate_limited_total",
			Help: "Requests refused by the per-client analysis rate limit",
		}),
	}
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Middleware records latency per chi route pattern. Unmatched requests are
// labeled "unmatched" so arbitrary paths cannot grow the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}
