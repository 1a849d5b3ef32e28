package tracker

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes poll-cycle collectors.
type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	overLimit     prometheus.Gauge
	notified      prometheus.Counter
	pruned        prometheus.Counter
}

// NewMetrics registers the poll-cycle collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "budget_notifier_cycles_total",
			Help: "Poll cycles run, by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "budget_notifier_cycle_duration_seconds",
			Help:    "Duration of a poll cycle.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		overLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "budget_notifier_over_limit_budgets",
			Help: "Budgets over their limit in the last cycle.",
		}),
		notified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "budget_notifier_budgets_notified_total",
			Help: "Budgets notified after deduplication.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "budget_notifier_records_pruned_total",
			Help: "Alert records removed for budgets that no longer exist.",
		}),
	}
	reg.MustRegister(m.cycles, m.cycleDuration, m.overLimit, m.notified, m.pruned)
	return m
}
