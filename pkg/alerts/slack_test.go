package alerts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAlert() alerts.Alert {
	return alerts.Alert{
		Studio:         "studio.us-west-2.deadlinecloud.amazonaws.com",
		FarmID:         "farm-1",
		FarmName:       "Main Farm",
		QueueID:        "queue-1",
		QueueName:      "Comp",
		BudgetID:       "budget-1",
		Action:         model.ActionNone,
		Limit:          100,
		LimitFormatted: "$100.00",
		Usage:          150,
		Subject:        "Deadline Cloud Budget Alert: Comp reached its limit",
		Message:        "The queue Comp reached its limit",
	}
}

func TestSlackNotifier_Name(t *testing.T) {
	n := alerts.NewSlackNotifier("https://hooks.slack.com/test", "#test")
	assert.Equal(t, "slack", n.Name())
}

func TestSlackNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#render-budgets")

	err := n.Send(context.Background(), sampleAlert())
	require.NoError(t, err)
	assert.Equal(t, "#render-budgets", received["channel"])
	assert.Equal(t, "Deadline Cloud Budget Alert: Comp reached its limit", received["text"])

	attachments, ok := received["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	first := attachments[0].(map[string]any)
	assert.Equal(t, "https://studio.us-west-2.deadlinecloud.amazonaws.com/farms/farm-1/budget/budget-1/edit", first["title_link"])
}

func TestSlackNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#test")
	err := n.Send(context.Background(), sampleAlert())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSlackNotifier_ActionColors(t *testing.T) {
	tests := []struct {
		action model.BudgetAction
		color  string
	}{
		{model.ActionNone, "#ff9900"},
		{model.ActionStopSchedulingAndCancelTasks, "#cc0000"},
		{model.ActionStopSchedulingAndCompleteTasks, "#cc0000"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			var received map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&received)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			alert := sampleAlert()
			alert.Action = tt.action
			n := alerts.NewSlackNotifier(server.URL, "#test")
			require.NoError(t, n.Send(context.Background(), alert))

			first := received["attachments"].([]any)[0].(map[string]any)
			assert.Equal(t, tt.color, first["color"])
		})
	}
}
