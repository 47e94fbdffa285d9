package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alert-to-notification pipeline.
type Metrics struct {
	AlertsFetched     prometheus.Counter
	AlertsAccepted    prometheus.Counter
	AlertsDuplicate   prometheus.Counter
	PollCycles        prometheus.Counter
	PollCyclesSkipped prometheus.Counter
	PollFailures      prometheus.Counter
	PollerRunning     prometheus.Gauge

	CycleDuration prometheus.Histogram

	// Generation metrics.
	GenerationAttempts  *prometheus.CounterVec // labels: outcome={valid,invalid,error}
	GenerationFallbacks prometheus.Counter
	GenerationDuration  prometheus.Histogram

	// Delivery metrics.
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AlertsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "alerts_fetched_total",
			Help:      "Total alert records returned by the upstream source.",
		}),
		AlertsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "alerts_accepted_total",
			Help:      "Total alerts accepted as new after deduplication.",
		}),
		AlertsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "alerts_duplicate_total",
			Help:      "Total alerts skipped as already seen.",
		}),
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "poll_cycles_total",
			Help:      "Total completed polling cycles.",
		}),
		PollCyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "poll_cycles_skipped_total",
			Help:      "Ticks dropped because a cycle was still in flight.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "poll_failures_total",
			Help:      "Cycles ended early by an upstream fetch failure.",
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evac_notifier",
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evac_notifier",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-dedup-process cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GenerationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "generation_attempts_total",
			Help:      "Action-card generation attempts by outcome.",
		}, []string{"outcome"}),
		GenerationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "generation_fallbacks_total",
			Help:      "Action cards produced by the deterministic template.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evac_notifier",
			Name:      "generation_duration_seconds",
			Help:      "End-to-end action-card generation duration.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "notifications_sent_total",
			Help:      "Push notifications accepted by the gateway.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_notifier",
			Name:      "notifications_failed_total",
			Help:      "Push notifications that failed to send.",
		}),
	}

	prometheus.MustRegister(
		m.AlertsFetched,
		m.AlertsAccepted,
		m.AlertsDuplicate,
		m.PollCycles,
		m.PollCyclesSkipped,
		m.PollFailures,
		m.PollerRunning,
		m.CycleDuration,
		m.GenerationAttempts,
		m.GenerationFallbacks,
		m.GenerationDuration,
		m.NotificationsSent,
		m.NotificationsFailed,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AlertsFetched:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "alerts_fetched_total"}),
		AlertsAccepted:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "alerts_accepted_total"}),
		AlertsDuplicate:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "alerts_duplicate_total"}),
		PollCycles:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "poll_cycles_total"}),
		PollCyclesSkipped:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "poll_cycles_skipped_total"}),
		PollFailures:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "poll_failures_total"}),
		PollerRunning:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "evac_notifier", Name: "poller_running"}),
		CycleDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "evac_notifier", Name: "poll_cycle_duration_seconds"}),
		GenerationAttempts:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "generation_attempts_total"}, []string{"outcome"}),
		GenerationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "generation_fallbacks_total"}),
		GenerationDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "evac_notifier", Name: "generation_duration_seconds"}),
		NotificationsSent:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "notifications_sent_total"}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "evac_notifier", Name: "notifications_failed_total"}),
	}
}
