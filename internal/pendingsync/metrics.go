package pendingsync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this package.
	MetricsSubsystem = "pending_sync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of poll cycles started.
	Cycles metrics.Counter
	// Number of cycles in which the gateway echoed the head.
	StaleEchoes metrics.Counter
	// Number of pending events published.
	PendingEvents metrics.Counter
	// Number of ended poll sessions, labeled by reason.
	SessionExits metrics.Counter
	// Number of classes downloaded and persisted.
	ClassesDownloaded metrics.Counter
	// Time spent waiting for the pending state update.
	StateUpdateSeconds metrics.Histogram
	// Transactions in the last published pending block.
	PendingTransactions metrics.Gauge
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
		Cycles: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "cycles",
			Help:      "Number of pending poll cycles started.",
		}, labels).With(labelsAndValues...),
		StaleEchoes: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "stale_echoes",
			Help:      "Number of cycles in which the gateway returned the current head as pending block.",
		}, labels).With(labelsAndValues...),
		PendingEvents: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_events",
			Help:      "Number of pending block and state update pairs published.",
		}, labels).With(labelsAndValues...),
		SessionExits: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "session_exits",
			Help:      "Number of ended poll sessions by reason.",
		}, append(labels, "reason")).With(labelsAndValues...),
		ClassesDownloaded: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "classes_downloaded",
			Help:      "Number of classes referenced by pending state and persisted locally.",
		}, labels).With(labelsAndValues...),
		StateUpdateSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "state_update_seconds",
			Help:      "Time spent waiting for the pending state update.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180},
		}, labels).With(labelsAndValues...),
		PendingTransactions: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_transactions",
			Help:      "Number of transactions in the last published pending block.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Cycles:              discard.NewCounter(),
		StaleEchoes:         discard.NewCounter(),
		PendingEvents:       discard.NewCounter(),
		SessionExits:        discard.NewCounter(),
		ClassesDownloaded:   discard.NewCounter(),
		StateUpdateSeconds:  discard.NewHistogram(),
		PendingTransactions: discard.NewGauge(),
	}
}
