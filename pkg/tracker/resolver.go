package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// ScanResolver finds a queue's farm by listing the queues of every farm.
type ScanResolver struct {
	api    FarmAPI
	logger *slog.Logger
}

// NewScanResolver creates a resolver backed by api.
func NewScanResolver(api FarmAPI, logger *slog.Logger) *ScanResolver {
	return &ScanResolver{api: api, logger: logger}
}

// ResolveQueue returns the farm and queue for queueID. Farms the caller may
// not read are skipped.
func (r *ScanResolver) ResolveQueue(ctx context.Context, queueID string) (model.Farm, model.Queue, error) {
	farms, err := r.api.ListFarms(ctx)
	if err != nil {
		return model.Farm{}, model.Queue{}, err
	}

	for _, farm := range farms {
		queues, err := r.api.ListQueues(ctx, farm.ID)
		if errors.Is(err, model.ErrAccessDenied) {
			r.logger.Warn("skipping farm", "farm", farm.ID, "error", err)
			continue
		}
		if err != nil {
			return model.Farm{}, model.Queue{}, err
		}

		for _, q := range queues {
			if q.ID == queueID {
				return farm, q, nil
			}
		}
	}

	return model.Farm{}, model.Queue{}, fmt.Errorf("queue %s: %w", queueID, model.ErrQueueNotFound)
}
