package discovery

import (
	"github.com/prometheus/client_golang/prometheus"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/util"
)

// Observer - Receives visit and round outcomes as the crawl progresses.
// ObserveVisit is called from worker goroutines and must be safe for concurrent use.
type Observer interface {
	ObserveVisit(entry common.VisitEntry)
	ObserveRound(entry common.RoundEntry)
}

// Metrics - Prometheus crawl metrics.
type Metrics struct {
	visits        *prometheus.CounterVec
	visitDuration prometheus.Histogram
	rounds        prometheus.Counter
	discovered    prometheus.Counter
	anomalies     prometheus.Counter
	frontierSize  prometheus.Gauge
	depth         prometheus.Gauge
}

// NewMetrics - Create and register crawl metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	namespace := common.PrometheusNamespace
	return &Metrics{
		visits: util.NewCounterVec(registry, namespace, "crawl", "visits_total",
			"Device visits, by result.", []string{"result"}),
		visitDuration: util.NewHistogram(registry, namespace, "crawl", "visit_duration_seconds",
			"Duration of single device visits.", []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120}),
		rounds: util.NewCounter(registry, namespace, "crawl", "rounds_total",
			"Completed crawl rounds, including the seed round."),
		discovered: util.NewCounter(registry, namespace, "crawl", "discovered_total",
			"Devices discovered as neighbors."),
		anomalies: util.NewCounter(registry, namespace, "crawl", "anomalies_total",
			"Results discarded because the device was already visited."),
		frontierSize: util.NewGauge(registry, namespace, "crawl", "frontier_size",
			"Devices discovered but not yet visited.", nil),
		depth: util.NewGauge(registry, namespace, "crawl", "depth",
			"Current crawl depth.", nil),
	}
}

// ObserveVisit - Count a device visit.
func (metrics *Metrics) ObserveVisit(entry common.VisitEntry) {
	result := "success"
	if !entry.Success {
		result = "failure"
	}
	metrics.visits.WithLabelValues(result).Inc()
	metrics.visitDuration.Observe(entry.Duration.Seconds())
}

// ObserveRound - Count a round.
func (metrics *Metrics) ObserveRound(entry common.RoundEntry) {
	metrics.rounds.Inc()
	metrics.discovered.Add(float64(entry.Discovered))
	metrics.anomalies.Add(float64(entry.Anomalies))
	metrics.frontierSize.Set(float64(entry.FrontierSize))
	metrics.depth.Set(float64(entry.Depth))
}
