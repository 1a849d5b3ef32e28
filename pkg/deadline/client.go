// Package deadline lists farms, queues and budgets from AWS Deadline Cloud
// and maps them onto the notifier's model types.
package deadline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/deadline"
	"github.com/aws/aws-sdk-go-v2/service/deadline/types"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// API is the subset of the Deadline Cloud client used here.
type API interface {
	deadline.ListFarmsAPIClient
	deadline.ListQueuesAPIClient
	deadline.ListBudgetsAPIClient
}

// Client wraps the Deadline Cloud API with transparent pagination.
type Client struct {
	api API
}

// New creates a client around an existing API implementation.
func New(api API) *Client {
	return &Client{api: api}
}

// NewFromConfig loads the shared AWS configuration for profile and region
// and returns a client. Empty values use the SDK defaults.
func NewFromConfig(ctx context.Context, profile, region string) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for profile %s: %w", profile, err)
	}
	return New(deadline.NewFromConfig(cfg)), nil
}

// ListFarms returns every farm visible to the caller.
func (c *Client) ListFarms(ctx context.Context) ([]model.Farm, error) {
	var farms []model.Farm

	p := deadline.NewListFarmsPaginator(c.api, &deadline.ListFarmsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify("list farms", err)
		}
		if page == nil || page.Farms == nil {
			return nil, model.NewError(model.KindDataShape, "list farms", fmt.Errorf("%w: no farms in result", model.ErrMalformedResponse))
		}
		for _, f := range page.Farms {
			if f.FarmId == nil {
				return nil, model.NewError(model.KindDataShape, "list farms", fmt.Errorf("%w: farm without id", model.ErrMalformedResponse))
			}
			farms = append(farms, model.Farm{
				ID:          aws.ToString(f.FarmId),
				DisplayName: aws.ToString(f.DisplayName),
			})
		}
	}
	return farms, nil
}

// ListQueues returns every queue on farmID.
func (c *Client) ListQueues(ctx context.Context, farmID string) ([]model.Queue, error) {
	var queues []model.Queue

	p := deadline.NewListQueuesPaginator(c.api, &deadline.ListQueuesInput{FarmId: aws.String(farmID)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify("list queues on farm "+farmID, err)
		}
		if page == nil || page.Queues == nil {
			return nil, model.NewError(model.KindDataShape, "list queues on farm "+farmID,
				fmt.Errorf("%w: no queues in result", model.ErrMalformedResponse))
		}
		for _, q := range page.Queues {
			if q.QueueId == nil {
				return nil, model.NewError(model.KindDataShape, "list queues on farm "+farmID,
					fmt.Errorf("%w: queue without id", model.ErrMalformedResponse))
			}
			farm := aws.ToString(q.FarmId)
			if farm == "" {
				farm = farmID
			}
			queues = append(queues, model.Queue{
				ID:                  aws.ToString(q.QueueId),
				FarmID:              farm,
				DisplayName:         aws.ToString(q.DisplayName),
				DefaultBudgetAction: model.BudgetAction(q.DefaultBudgetAction),
			})
		}
	}
	return queues, nil
}

// ListBudgets returns every budget on farmID. Budgets that do not track a
// queue are a data-shape error.
func (c *Client) ListBudgets(ctx context.Context, farmID string) ([]model.Budget, error) {
	var budgets []model.Budget

	p := deadline.NewListBudgetsPaginator(c.api, &deadline.ListBudgetsInput{FarmId: aws.String(farmID)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify("list budgets on farm "+farmID, err)
		}
		if page == nil || page.Budgets == nil {
			return nil, model.NewError(model.KindDataShape, "list budgets on farm "+farmID,
				fmt.Errorf("%w: no budgets in result", model.ErrMalformedResponse))
		}
		for _, b := range page.Budgets {
			budget, err := toBudget(b)
			if err != nil {
				return nil, model.NewError(model.KindDataShape, "list budgets on farm "+farmID, err)
			}
			budgets = append(budgets, budget)
		}
	}
	return budgets, nil
}

func toBudget(b types.BudgetSummary) (model.Budget, error) {
	id := aws.ToString(b.BudgetId)
	if id == "" {
		return model.Budget{}, fmt.Errorf("%w: budget without id", model.ErrMalformedResponse)
	}
	if b.ApproximateDollarLimit == nil {
		return model.Budget{}, fmt.Errorf("%w: budget %s has no limit", model.ErrMalformedResponse, id)
	}
	if b.Usages == nil || b.Usages.ApproximateDollarUsage == nil {
		return model.Budget{}, fmt.Errorf("%w: budget %s has no usage", model.ErrMalformedResponse, id)
	}

	queue, ok := b.UsageTrackingResource.(*types.UsageTrackingResourceMemberQueueId)
	if !ok || queue.Value == "" {
		return model.Budget{}, fmt.Errorf("%w: budget %s does not track a queue", model.ErrMalformedResponse, id)
	}

	return model.Budget{
		ID:          id,
		DisplayName: aws.ToString(b.DisplayName),
		Status:      model.BudgetStatus(b.Status),
		Limit:       RoundCents(*b.ApproximateDollarLimit),
		Usage:       RoundCents(*b.Usages.ApproximateDollarUsage),
		QueueID:     queue.Value,
	}, nil
}

// RoundCents widens a float32 dollar amount and rounds it to cents so the
// value stored for dedup is stable across polls.
func RoundCents(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}

// classify tags SDK errors with an error kind. Access denied keeps the
// model sentinel in the chain.
func classify(op string, err error) error {
	var denied *types.AccessDeniedException
	if errors.As(err, &denied) {
		return model.NewError(model.KindTransient, op, fmt.Errorf("%w: %s", model.ErrAccessDenied, denied.ErrorMessage()))
	}
	return model.NewError(model.KindTransient, op, err)
}
