package model

import "time"

// BudgetStatus is the lifecycle state of a Deadline Cloud budget.
type BudgetStatus string

const (
	BudgetActive   BudgetStatus = "ACTIVE"
	BudgetInactive BudgetStatus = "INACTIVE"
)

// BudgetAction is what a queue does once its budget limit is reached.
type BudgetAction string

const (
	ActionNone                           BudgetAction = "NONE"
	ActionStopSchedulingAndCompleteTasks BudgetAction = "STOP_SCHEDULING_AND_COMPLETE_TASKS"
	ActionStopSchedulingAndCancelTasks   BudgetAction = "STOP_SCHEDULING_AND_CANCEL_TASKS"
)

// Stops reports whether the action halts scheduling on the queue.
func (a BudgetAction) Stops() bool {
	return a == ActionStopSchedulingAndCompleteTasks || a == ActionStopSchedulingAndCancelTasks
}

// Farm is a top-level Deadline Cloud farm.
type Farm struct {
	ID          string `json:"farm_id"`
	DisplayName string `json:"display_name"`
}

// Queue belongs to exactly one farm.
type Queue struct {
	ID                  string       `json:"queue_id"`
	FarmID              string       `json:"farm_id"`
	DisplayName         string       `json:"display_name"`
	DefaultBudgetAction BudgetAction `json:"default_budget_action"`
}

// Budget is a read-only snapshot of a spending cap tracked for a queue.
// Limit and Usage are USD amounts rounded to cents.
type Budget struct {
	ID          string       `json:"budget_id"`
	DisplayName string       `json:"display_name,omitempty"`
	Status      BudgetStatus `json:"status"`
	Limit       float64      `json:"limit"`
	Usage       float64      `json:"usage"`
	QueueID     string       `json:"queue_id"`
}

// OverLimit reports whether usage has met or exceeded the limit.
func (b Budget) OverLimit() bool {
	return b.Usage >= b.Limit
}

// AlertRecord is the last limit an alert was delivered for.
type AlertRecord struct {
	BudgetID string  `json:"-"`
	Limit    float64 `json:"limit"`
}

// AlertState is the outcome of a dedup lookup.
type AlertState int

const (
	// AlertStateUnknown means the store was unreadable or empty.
	AlertStateUnknown AlertState = iota
	AlertStateNotNotified
	AlertStateNotified
)

func (s AlertState) String() string {
	switch s {
	case AlertStateNotified:
		return "notified"
	case AlertStateNotNotified:
		return "not_notified"
	default:
		return "unknown"
	}
}

// Group is a named recipient list addressed by queue alerts.
type Group struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	ProjectID int    `json:"project_id,omitempty"`
}

// Note is a delivered notification entity.
type Note struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
}

// StudioResult aggregates one poll cycle for a studio.
type StudioResult struct {
	Studio        string    `json:"studio"`
	FarmsChecked  int       `json:"farms_checked"`
	OverLimit     []Budget  `json:"over_limit"`
	Notified      []Budget  `json:"notified"`
	GroupsCreated []Group   `json:"groups_created,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// CycleReport summarises the most recent poll cycle.
type CycleReport struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Studios    []StudioResult `json:"studios"`
	Pruned     []string       `json:"pruned,omitempty"`
	Error      string         `json:"error,omitempty"`
}
