package http

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this package.
	MetricsSubsystem = "gateway"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Time spent per gateway method, retries included.
	RequestDuration metrics.Histogram
	// Number of retried gateway requests.
	Retries metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		RequestDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Time spent on gateway requests, including retries.",
			Buckets:   stdprometheus.ExponentialBuckets(0.05, 2, 10),
		}, append(labels, "method")).With(labelsAndValues...),
		Retries: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "retries",
			Help:      "Number of retried gateway requests.",
		}, append(labels, "method")).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		RequestDuration: discard.NewHistogram(),
		Retries:         discard.NewCounter(),
	}
}
