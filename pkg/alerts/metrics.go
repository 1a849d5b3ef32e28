package alerts

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records delivery counts and latency per notifier.
type Metrics struct {
	sendCounter  *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
}

// NewMetrics registers the notifier collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	sendCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_notifier_alerts_sent_total",
			Help: "Budget alerts delivered, by notifier and status.",
		},
		[]string{"notifier", "status"},
	)

	sendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "budget_notifier_alert_send_duration_seconds",
			Help:    "Time spent delivering a budget alert.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"notifier"},
	)

	reg.MustRegister(sendCounter, sendDuration)

	return &Metrics{sendCounter: sendCounter, sendDuration: sendDuration}
}

// Wrap decorates n so every Send is measured.
func (m *Metrics) Wrap(n Notifier) Notifier {
	return &measuredNotifier{next: n, metrics: m}
}

type measuredNotifier struct {
	next    Notifier
	metrics *Metrics
}

func (n *measuredNotifier) Name() string { return n.next.Name() }

func (n *measuredNotifier) Send(ctx context.Context, alert Alert) error {
	start := time.Now()
	err := n.next.Send(ctx, alert)
	n.metrics.sendDuration.WithLabelValues(n.next.Name()).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	n.metrics.sendCounter.WithLabelValues(n.next.Name(), status).Inc()
	return err
}
