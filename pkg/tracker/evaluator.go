package tracker

import (
	"log/slog"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// SelectOverLimit returns the active budgets whose usage has reached their
// limit, in input order. Reaching the limit exactly counts as over.
func SelectOverLimit(budgets []model.Budget, logger *slog.Logger) []model.Budget {
	var over []model.Budget
	for _, b := range budgets {
		if b.Status != model.BudgetActive {
			logger.Debug("skipping budget", "budget", b.ID, "status", b.Status)
			continue
		}
		if b.OverLimit() {
			over = append(over, b)
		}
	}
	return over
}
