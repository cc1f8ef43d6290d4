package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	ItemsTotal     *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	SummariesTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "news_crawl_runs_total",
			Help: "Crawl runs by source and terminal status",
		}, []string{"source", "status"}),
		ItemsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "news_crawl_items_total",
			Help: "Crawled items by source and outcome",
		}, []string{"source", "outcome"}), // 'saved', 'duplicate', 'failed'
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "news_crawl_run_duration_seconds",
			Help:    "Wall time of crawl runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"source"}),
		SummariesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "news_summaries_total",
			Help: "Summary enrichment attempts by result status",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveRun(source, status string, seconds float64) {
	m.RunsTotal.WithLabelValues(source, status).Inc()
	m.RunDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) IncItem(source, outcome string) {
	m.ItemsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) IncSummary(status string) {
	m.SummariesTotal.WithLabelValues(status).Inc()
}
