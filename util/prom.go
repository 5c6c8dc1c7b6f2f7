package util

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewExporterMetric - Convenience function to create, register and set a gauge containing exporter info.
func NewExporterMetric(registry prometheus.Registerer, namespace string, version string) {
	infoLabels := make(prometheus.Labels)
	infoLabels["version"] = version
	NewGauge(registry, namespace, "exporter", "info", "Metadata about the exporter.", infoLabels).Set(1)
}

// NewGauge - Convenience function to create, register and return a gauge.
func NewGauge(registry prometheus.Registerer, namespace string, subsystem string, name string, help string, constLabels prometheus.Labels) prometheus.Gauge {
	var metric = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: constLabels,
	})
	registry.MustRegister(metric)
	return metric
}

// NewCounter - Convenience function to create, register and return a counter.
func NewCounter(registry prometheus.Registerer, namespace string, subsystem string, name string, help string) prometheus.Counter {
	var metric = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(metric)
	return metric
}

// NewCounterVec - Convenience function to create, register and return a labeled counter.
func NewCounterVec(registry prometheus.Registerer, namespace string, subsystem string, name string, help string, labels []string) *prometheus.CounterVec {
	var metric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(metric)
	return metric
}

// NewHistogram - Convenience function to create, register and return a histogram.
func NewHistogram(registry prometheus.Registerer, namespace string, subsystem string, name string, help string, buckets []float64) prometheus.Histogram {
	var metric = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	registry.MustRegister(metric)
	return metric
}
