package internal

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "graw"

// Metrics holds the Prometheus collectors updated by the dispatcher, the
// paginators and the more-comments resolver.
type Metrics struct {
	Requests      *prometheus.CounterVec
	RateLimitWait prometheus.Histogram
	ListingItems  *prometheus.CounterVec
	MoreFetched   prometheus.Counter
	MoreRounds    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which keeps them usable in tests and
// for callers who do not export metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "API requests sent, by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "ratelimit_wait_seconds",
			Help:      "Time spent waiting for a request slot.",
			Buckets:   []float64{0, .05, .1, .25, .5, 1, 2, 5, 10, 30},
		}),
		ListingItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listing_items_total",
			Help:      "Entities returned by listing fetches, by endpoint and direction.",
		}, []string{"endpoint", "direction"}),
		MoreFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "more_children_fetched_total",
			Help:      "Entities returned by morechildren calls.",
		}),
		MoreRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "more_resolution_rounds",
			Help:      "Fetch rounds needed to resolve a thread's more placeholders.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.RateLimitWait, m.ListingItems, m.MoreFetched, m.MoreRounds)
	}
	return m
}

func (m *Metrics) observeRequest(endpoint string, status int) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(endpoint, code).Inc()
}

func (m *Metrics) observeListing(endpoint, direction string, n int) {
	if m == nil {
		return
	}
	m.ListingItems.WithLabelValues(endpoint, direction).Add(float64(n))
}
