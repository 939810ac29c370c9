package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for remote searches and the result cache.
type Metrics struct {
	// Full submit/poll/fetch duration by database and outcome
	SearchLatency *prometheus.HistogramVec

	// Status polls needed before results were ready
	PollAttempts *prometheus.HistogramVec

	// HTTP attempts that failed and were retried
	TransportRetries prometheus.Counter

	// 1 while the circuit breaker is open
	BreakerOpen prometheus.Gauge

	// Cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec
}

// New creates a new Metrics instance with all search metrics registered.
func New() *Metrics {
	return &Metrics{
		SearchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seqguard_search_duration_seconds",
			Help:    "Duration of remote sequence searches including polling",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 180, 300, 420},
		}, []string{"database", "outcome"}),

		PollAttempts: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seqguard_search_poll_attempts",
			Help:    "Status polls issued before a search completed",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 60},
		}, []string{"database"}),

		TransportRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seqguard_search_transport_retries_total",
			Help: "Failed HTTP attempts against the search service that were retried",
		}),

		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "seqguard_search_circuit_open",
			Help: "Whether the search service circuit breaker is open (1) or closed (0)",
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seqguard_search_cache_lookups_total",
			Help: "Search result cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveSearch(database, outcome string, d time.Duration) {
	if m != nil {
		m.SearchLatency.WithLabelValues(database, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) ObservePollAttempts(database string, attempts int) {
	if m != nil {
		m.PollAttempts.WithLabelValues(database).Observe(float64(attempts))
	}
}

func (m *Metrics) IncrementRetry() {
	if m != nil {
		m.TransportRetries.Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
