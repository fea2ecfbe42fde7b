package metrics

import "github.com/prometheus/client_golang/prometheus"

var ProviderLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16}

// QuoteMetrics groups quote orchestration metrics
type QuoteMetrics struct {
	RequestsTotal         *prometheus.CounterVec
	ProviderOutcomesTotal *prometheus.CounterVec
	ProviderLatency       *prometheus.HistogramVec
	RankedQuotes          prometheus.Histogram
}

// NewQuoteMetrics creates and returns quote orchestration metrics
func NewQuoteMetrics() *QuoteMetrics {
	return &QuoteMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniquote_quote_requests_total",
				Help: "Total number of quote calculations",
			},
			[]string{"result"}, // ok, validation_error, no_providers, aggregate_failure
		),
		ProviderOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniquote_provider_outcomes_total",
				Help: "Per-provider calculation outcomes",
			},
			[]string{"provider", "outcome"}, // succeeded, no_route, failed, timed_out
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "omniquote_provider_latency_seconds",
				Help:    "Provider calculation latency in seconds",
				Buckets: ProviderLatencyBuckets,
			},
			[]string{"provider"},
		),
		RankedQuotes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "omniquote_ranked_quotes",
				Help:    "Number of quotes surviving ranking per request",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
	}
}

// Register registers all quote metrics with the given registry
func (q *QuoteMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		q.RequestsTotal,
		q.ProviderOutcomesTotal,
		q.ProviderLatency,
		q.RankedQuotes,
	)
}

func QuoteRequestsTotal() *prometheus.CounterVec {
	return GetMetrics().Quote.RequestsTotal
}

func ProviderOutcomesTotal() *prometheus.CounterVec {
	return GetMetrics().Quote.ProviderOutcomesTotal
}

func ProviderLatency() *prometheus.HistogramVec {
	return GetMetrics().Quote.ProviderLatency
}

func RankedQuotes() prometheus.Histogram {
	return GetMetrics().Quote.RankedQuotes
}
