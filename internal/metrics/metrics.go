// Package metrics exposes trie counters to Prometheus and serves the scrape handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements suggest.Recorder on Prometheus collectors.
type Metrics struct {
	CacheLookupsTotal  *prometheus.CounterVec
	ItemsAddedTotal    prometheus.Counter
	SearchesTotal      prometheus.Counter
	SearchLatency      prometheus.Histogram
	SearchResultsCount prometheus.Histogram
	SearchPhrasesCount prometheus.Histogram
	RequestsTotal      *prometheus.CounterVec
	gatherer           prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trieserve_cache_lookups_total",
				Help: "Cache lookups by cache (phrase, word) and result (hit, miss).",
			},
			[]string{"cache", "result"},
		),
		ItemsAddedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trieserve_items_added_total",
				Help: "Total items indexed.",
			},
		),
		SearchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trieserve_searches_total",
				Help: "Total completed searches.",
			},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trieserve_search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trieserve_search_results_count",
				Help:    "Number of results returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		SearchPhrasesCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trieserve_search_phrases_count",
				Help:    "Number of phrases per search.",
				Buckets: []float64{1, 2, 3, 5, 10},
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trieserve_requests_total",
				Help: "IPC requests by action and status (ok, error).",
			},
			[]string{"action", "status"},
		),
	}

	reg.MustRegister(
		m.CacheLookupsTotal,
		m.ItemsAddedTotal,
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.SearchPhrasesCount,
		m.RequestsTotal,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) ItemsAdded(n int) {
	m.ItemsAddedTotal.Add(float64(n))
}

func (m *Metrics) SearchCompleted(phrases, results int, elapsed time.Duration) {
	m.SearchesTotal.Inc()
	m.SearchLatency.Observe(elapsed.Seconds())
	m.SearchResultsCount.Observe(float64(results))
	m.SearchPhrasesCount.Observe(float64(phrases))
}

// Request counts one handled IPC request.
func (m *Metrics) Request(action string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(action, status).Inc()
}

// Handler returns the scrape handler for the registry the collectors were
// registered with, or the default one.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil || m.gatherer == prometheus.DefaultGatherer {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
