package alerts

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// Alert is a budget-limit notification for one queue.
type Alert struct {
	Studio         string             `json:"studio"`
	FarmID         string             `json:"farm_id"`
	FarmName       string             `json:"farm_name"`
	QueueID        string             `json:"queue_id"`
	QueueName      string             `json:"queue_name"`
	BudgetID       string             `json:"budget_id"`
	BudgetName     string             `json:"budget_name,omitempty"`
	Action         model.BudgetAction `json:"default_budget_action"`
	Limit          float64            `json:"limit"`
	LimitFormatted string             `json:"limit_formatted"`
	Usage          float64            `json:"usage"`
	Subject        string             `json:"subject"`
	Message        string             `json:"message"`
}

// EditURL links to the budget's edit page in Deadline Cloud Monitor.
func (a Alert) EditURL() string {
	return fmt.Sprintf("https://%s/farms/%s/budget/%s/edit", a.Studio, a.FarmID, a.BudgetID)
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert.
	Send(ctx context.Context, alert Alert) error
}
