package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/storage"
)

// BudgetNotifier delivers one alert per over-limit budget and limit value.
type BudgetNotifier struct {
	resolver  Resolver
	dedup     *storage.Dedup
	primary   alerts.Notifier
	mirrors   []alerts.Notifier
	formatter *CurrencyFormatter
	composer  *alerts.Composer
	logger    *slog.Logger
}

// Option configures a BudgetNotifier.
type Option func(*BudgetNotifier)

// WithMirrors adds notifiers that receive a copy of every alert the primary
// notifier delivered. Their failures are logged only.
func WithMirrors(mirrors ...alerts.Notifier) Option {
	return func(n *BudgetNotifier) { n.mirrors = append(n.mirrors, mirrors...) }
}

// WithFormatter sets the currency formatter.
func WithFormatter(f *CurrencyFormatter) Option {
	return func(n *BudgetNotifier) { n.formatter = f }
}

// WithComposer sets the message composer.
func WithComposer(c *alerts.Composer) Option {
	return func(n *BudgetNotifier) { n.composer = c }
}

// NewBudgetNotifier creates a notifier that delivers through primary.
func NewBudgetNotifier(resolver Resolver, dedup *storage.Dedup, primary alerts.Notifier, logger *slog.Logger, opts ...Option) *BudgetNotifier {
	n := &BudgetNotifier{
		resolver: resolver,
		dedup:    dedup,
		primary:  primary,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.formatter == nil {
		n.formatter = NewCurrencyFormatter("")
	}
	if n.composer == nil {
		n.composer = alerts.DefaultComposer()
	}
	return n
}

// NotifyOverLimit alerts on each budget in order and returns those that were
// delivered. A failure on one budget is logged and the rest still run.
func (n *BudgetNotifier) NotifyOverLimit(ctx context.Context, studio string, budgets []model.Budget) []model.Budget {
	var notified []model.Budget
	for _, b := range budgets {
		sent, err := n.notifyBudget(ctx, studio, b)
		if err != nil {
			n.logger.Error("budget notification failed",
				"budget", b.ID,
				"queue", b.QueueID,
				"kind", model.KindOf(err).String(),
				"error", err,
			)
			continue
		}
		if sent {
			notified = append(notified, b)
		}
	}
	return notified
}

func (n *BudgetNotifier) notifyBudget(ctx context.Context, studio string, b model.Budget) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
			err = model.NewError(model.KindUnexpected, "notify budget "+b.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	farm, queue, err := n.resolver.ResolveQueue(ctx, b.QueueID)
	if err != nil {
		return false, fmt.Errorf("resolve queue %s: %w", b.QueueID, err)
	}

	if n.dedup.WasAlreadyNotified(ctx, b.ID, b.Limit) == model.AlertStateNotified {
		return false, nil
	}

	if action := queue.DefaultBudgetAction; !action.Stops() && action != model.ActionNone {
		n.logger.Warn("unknown default budget action", "queue", queue.ID, "action", action)
	}

	alert, err := n.composer.Compose(alerts.Alert{
		Studio:         studio,
		FarmID:         farm.ID,
		FarmName:       farm.DisplayName,
		QueueID:        queue.ID,
		QueueName:      queue.DisplayName,
		BudgetID:       b.ID,
		BudgetName:     b.DisplayName,
		Action:         queue.DefaultBudgetAction,
		Limit:          b.Limit,
		LimitFormatted: n.formatter.Format(b.Limit),
		Usage:          b.Usage,
	})
	if err != nil {
		return false, fmt.Errorf("compose message: %w", err)
	}

	if err := n.primary.Send(ctx, alert); err != nil {
		return false, fmt.Errorf("send via %s: %w", n.primary.Name(), err)
	}

	for _, m := range n.mirrors {
		if err := m.Send(ctx, alert); err != nil {
			n.logger.Warn("mirror notification failed", "notifier", m.Name(), "budget", b.ID, "error", err)
		}
	}

	if err := n.dedup.RecordNotified(ctx, b.ID, b.Limit); err != nil {
		n.logger.Error("record notification", "budget", b.ID, "error", err)
	}

	n.logger.Info("budget notification sent",
		"budget", b.ID,
		"farm", farm.ID,
		"queue", queue.ID,
		"limit", alert.LimitFormatted,
		"usage", b.Usage,
	)
	return true, nil
}
