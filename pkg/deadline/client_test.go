package deadline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/deadline"
	"github.com/aws/aws-sdk-go-v2/service/deadline/types"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/deadline"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves pages keyed by NextToken ("" is the first page).
type fakeAPI struct {
	farms      map[string]*sdk.ListFarmsOutput
	queues     map[string]*sdk.ListQueuesOutput
	budgets    map[string]*sdk.ListBudgetsOutput
	queuesErr  error
	budgetsErr error
	calls      int
}

func (f *fakeAPI) ListFarms(_ context.Context, in *sdk.ListFarmsInput, _ ...func(*sdk.Options)) (*sdk.ListFarmsOutput, error) {
	f.calls++
	return f.farms[aws.ToString(in.NextToken)], nil
}

func (f *fakeAPI) ListQueues(_ context.Context, in *sdk.ListQueuesInput, _ ...func(*sdk.Options)) (*sdk.ListQueuesOutput, error) {
	f.calls++
	if f.queuesErr != nil {
		return nil, f.queuesErr
	}
	return f.queues[aws.ToString(in.NextToken)], nil
}

func (f *fakeAPI) ListBudgets(_ context.Context, in *sdk.ListBudgetsInput, _ ...func(*sdk.Options)) (*sdk.ListBudgetsOutput, error) {
	f.calls++
	if f.budgetsErr != nil {
		return nil, f.budgetsErr
	}
	return f.budgets[aws.ToString(in.NextToken)], nil
}

func budgetSummary(id, queueID string, status types.BudgetStatus, limit, usage float32) types.BudgetSummary {
	return types.BudgetSummary{
		BudgetId:               aws.String(id),
		DisplayName:            aws.String(id + "-name"),
		Status:                 status,
		ApproximateDollarLimit: aws.Float32(limit),
		Usages:                 &types.ConsumedUsages{ApproximateDollarUsage: aws.Float32(usage)},
		UsageTrackingResource:  &types.UsageTrackingResourceMemberQueueId{Value: queueID},
	}
}

func TestClient_ListFarms_Paginates(t *testing.T) {
	api := &fakeAPI{farms: map[string]*sdk.ListFarmsOutput{
		"": {
			Farms:     []types.FarmSummary{{FarmId: aws.String("farm-1"), DisplayName: aws.String("Farm One")}},
			NextToken: aws.String("p2"),
		},
		"p2": {
			Farms: []types.FarmSummary{{FarmId: aws.String("farm-2"), DisplayName: aws.String("Farm Two")}},
		},
	}}

	farms, err := deadline.New(api).ListFarms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Farm{
		{ID: "farm-1", DisplayName: "Farm One"},
		{ID: "farm-2", DisplayName: "Farm Two"},
	}, farms)
	assert.Equal(t, 2, api.calls)
}

func TestClient_ListFarms_MissingKey(t *testing.T) {
	api := &fakeAPI{farms: map[string]*sdk.ListFarmsOutput{"": {}}}

	_, err := deadline.New(api).ListFarms(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
	assert.Equal(t, model.KindDataShape, model.KindOf(err))
}

func TestClient_ListQueues(t *testing.T) {
	api := &fakeAPI{queues: map[string]*sdk.ListQueuesOutput{
		"": {Queues: []types.QueueSummary{{
			QueueId:             aws.String("queue-1"),
			FarmId:              aws.String("farm-1"),
			DisplayName:         aws.String("Comp"),
			DefaultBudgetAction: types.DefaultQueueBudgetActionStopSchedulingAndCancelTasks,
		}}},
	}}

	queues, err := deadline.New(api).ListQueues(context.Background(), "farm-1")
	require.NoError(t, err)
	require.Len(t, queues, 1)
	assert.Equal(t, "queue-1", queues[0].ID)
	assert.Equal(t, "farm-1", queues[0].FarmID)
	assert.Equal(t, "Comp", queues[0].DisplayName)
	assert.Equal(t, model.ActionStopSchedulingAndCancelTasks, queues[0].DefaultBudgetAction)
}

func TestClient_ListQueues_AccessDenied(t *testing.T) {
	api := &fakeAPI{queuesErr: &types.AccessDeniedException{Message: aws.String("nope")}}

	_, err := deadline.New(api).ListQueues(context.Background(), "farm-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAccessDenied)
	assert.Equal(t, model.KindTransient, model.KindOf(err))
}

func TestClient_ListBudgets(t *testing.T) {
	api := &fakeAPI{budgets: map[string]*sdk.ListBudgetsOutput{
		"": {
			Budgets:   []types.BudgetSummary{budgetSummary("b-1", "queue-1", types.BudgetStatusActive, 100, 150)},
			NextToken: aws.String("next"),
		},
		"next": {
			Budgets: []types.BudgetSummary{budgetSummary("b-2", "queue-2", types.BudgetStatusInactive, 100.1, 3)},
		},
	}}

	budgets, err := deadline.New(api).ListBudgets(context.Background(), "farm-1")
	require.NoError(t, err)
	require.Len(t, budgets, 2)

	assert.Equal(t, model.Budget{
		ID: "b-1", DisplayName: "b-1-name", Status: model.BudgetActive,
		Limit: 100, Usage: 150, QueueID: "queue-1",
	}, budgets[0])
	assert.Equal(t, model.BudgetInactive, budgets[1].Status)
	assert.Equal(t, 100.1, budgets[1].Limit)
}

func TestClient_ListBudgets_NotQueueTracked(t *testing.T) {
	b := budgetSummary("b-1", "queue-1", types.BudgetStatusActive, 1, 1)
	b.UsageTrackingResource = nil
	api := &fakeAPI{budgets: map[string]*sdk.ListBudgetsOutput{"": {Budgets: []types.BudgetSummary{b}}}}

	_, err := deadline.New(api).ListBudgets(context.Background(), "farm-1")
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
}

func TestClient_ListBudgets_TransportError(t *testing.T) {
	api := &fakeAPI{budgetsErr: errors.New("connection reset")}

	_, err := deadline.New(api).ListBudgets(context.Background(), "farm-1")
	require.Error(t, err)
	assert.Equal(t, model.KindTransient, model.KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 100.1, deadline.RoundCents(100.1))
	assert.Equal(t, 0.0, deadline.RoundCents(0))
	assert.Equal(t, 1234.57, deadline.RoundCents(1234.567))
}
