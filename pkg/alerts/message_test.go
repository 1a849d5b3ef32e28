package alerts_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer_ByAction(t *testing.T) {
	c := alerts.DefaultComposer()

	tests := []struct {
		action  model.BudgetAction
		subject string
		body    string
	}{
		{
			action:  model.ActionStopSchedulingAndCancelTasks,
			subject: "Deadline Cloud Budget Alert: Comp reached its limit and stopped",
			body:    "has stopped because it reached its budget limit of $100.00.",
		},
		{
			action:  model.ActionStopSchedulingAndCompleteTasks,
			subject: "Deadline Cloud Budget Alert: Comp reached its limit and stopped",
			body:    "Please update the budget limit to enable renders on this queue",
		},
		{
			action:  model.ActionNone,
			subject: "Deadline Cloud Budget Alert: Comp reached its limit",
			body:    "The queue will continue processing jobs.",
		},
		{
			action:  model.BudgetAction("SOMETHING_NEW"),
			subject: "Deadline Cloud Budget Alert: Comp reached its limit",
			body:    "The queue Comp on farm Main Farm has reached its budget limit of $100.00.\n",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			a := sampleAlert()
			a.Action = tt.action

			got, err := c.Compose(a)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, got.Subject)
			assert.Contains(t, got.Message, tt.body)
			assert.Contains(t, got.Message, "https://studio.us-west-2.deadlinecloud.amazonaws.com/farms/farm-1/budget/budget-1/edit")
		})
	}
}

func TestLoadTemplates_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	data := []byte(`
continuing:
  subject: "[budget] {{.QueueName}} hit {{.LimitFormatted}}"
  body: "farm {{.FarmID}}"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := alerts.LoadTemplates(path)
	require.NoError(t, err)

	got, err := c.Compose(sampleAlert())
	require.NoError(t, err)
	assert.Equal(t, "[budget] Comp hit $100.00", got.Subject)
	assert.Equal(t, "farm farm-1", got.Message)

	stop := sampleAlert()
	stop.Action = model.ActionStopSchedulingAndCancelTasks
	got, err = c.Compose(stop)
	require.NoError(t, err)
	assert.Contains(t, got.Subject, "and stopped")
}

func TestLoadTemplates_Invalid(t *testing.T) {
	_, err := alerts.LoadTemplatesFromBytes([]byte(`stopped: {subject: "{{.QueueName", body: "x"}`))
	assert.Error(t, err)

	_, err = alerts.LoadTemplatesFromBytes([]byte("invalid: [yaml"))
	assert.Error(t, err)

	_, err = alerts.LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadTemplates_EmptyPath(t *testing.T) {
	c, err := alerts.LoadTemplates("")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
