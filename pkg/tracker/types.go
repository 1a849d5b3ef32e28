package tracker

import (
	"context"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// FarmAPI lists the Deadline Cloud resources the notifier reads.
type FarmAPI interface {
	ListFarms(ctx context.Context) ([]model.Farm, error)
	ListQueues(ctx context.Context, farmID string) ([]model.Queue, error)
	ListBudgets(ctx context.Context, farmID string) ([]model.Budget, error)
}

// Resolver finds the farm and queue that own a queue ID.
type Resolver interface {
	ResolveQueue(ctx context.Context, queueID string) (model.Farm, model.Queue, error)
}

// GroupProvisioner creates missing notification groups for queues.
type GroupProvisioner interface {
	EnsureQueueGroups(ctx context.Context, queues []model.Queue) ([]model.Group, error)
}
