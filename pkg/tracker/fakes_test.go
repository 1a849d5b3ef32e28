package tracker_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/storage"
	"github.com/stretchr/testify/require"
)

type fakeFarms struct {
	farms     []model.Farm
	queues    map[string][]model.Queue
	budgets   map[string][]model.Budget
	farmsErr  error
	queueErr  map[string]error
	budgetErr map[string]error
}

func (f *fakeFarms) ListFarms(context.Context) ([]model.Farm, error) {
	if f.farmsErr != nil {
		return nil, f.farmsErr
	}
	return f.farms, nil
}

func (f *fakeFarms) ListQueues(_ context.Context, farmID string) ([]model.Queue, error) {
	if err := f.queueErr[farmID]; err != nil {
		return nil, err
	}
	return f.queues[farmID], nil
}

func (f *fakeFarms) ListBudgets(_ context.Context, farmID string) ([]model.Budget, error) {
	if err := f.budgetErr[farmID]; err != nil {
		return nil, err
	}
	return f.budgets[farmID], nil
}

// singleFarm has budget B1 (limit 100, usage 150) on queue-1 of farm-1.
func singleFarm() *fakeFarms {
	return &fakeFarms{
		farms: []model.Farm{{ID: "farm-1", DisplayName: "Main Farm"}},
		queues: map[string][]model.Queue{
			"farm-1": {{ID: "queue-1", FarmID: "farm-1", DisplayName: "Comp", DefaultBudgetAction: model.ActionNone}},
		},
		budgets: map[string][]model.Budget{
			"farm-1": {{ID: "B1", Status: model.BudgetActive, Limit: 100, Usage: 150, QueueID: "queue-1"}},
		},
	}
}

type recordingNotifier struct {
	name string
	err  error
	sent []alerts.Alert
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(_ context.Context, a alerts.Alert) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, a)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDedup(t *testing.T) (*storage.Dedup, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notifications", "notification_data.json")
	return storage.NewDedup(storage.NewJSONFile(path), testLogger()), path
}

func readStore(t *testing.T, path string) map[string]map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
