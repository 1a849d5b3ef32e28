package alerts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type stubNotifier struct {
	name string
	err  error
}

func (s stubNotifier) Name() string { return s.name }
func (s stubNotifier) Send(context.Context, alerts.Alert) error { return s.err }

func TestMetrics_Wrap(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := alerts.NewMetrics(reg)

	ok := m.Wrap(stubNotifier{name: "shotgrid"})
	failing := m.Wrap(stubNotifier{name: "slack", err: errors.New("down")})

	assert.Equal(t, "shotgrid", ok.Name())
	assert.NoError(t, ok.Send(context.Background(), sampleAlert()))
	assert.NoError(t, ok.Send(context.Background(), sampleAlert()))
	assert.Error(t, failing.Send(context.Background(), sampleAlert()))

	count, err := testutil.GatherAndCount(reg, "budget_notifier_alerts_sent_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
