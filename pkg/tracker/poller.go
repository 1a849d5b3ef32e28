package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/storage"
)

// Poller runs the list-evaluate-notify cycle across all studios.
type Poller struct {
	api      FarmAPI
	studios  []string
	reload   func() []string
	notifier *BudgetNotifier
	dedup    *storage.Dedup
	groups   GroupProvisioner
	metrics  *Metrics
	prune    bool
	logger   *slog.Logger

	mu   sync.RWMutex
	last *model.CycleReport
}

// PollerConfig holds the optional Poller collaborators.
type PollerConfig struct {
	// Groups provisions notification groups before a farm is notified. Nil skips provisioning.
	Groups GroupProvisioner
	// Metrics records cycle outcomes. Nil disables metrics.
	Metrics *Metrics
	// Prune removes alert records for budgets missing from a fully successful cycle.
	Prune bool
	// Studios, when set, replaces the studio list at the start of every cycle.
	Studios func() []string
}

// NewPoller creates a poller for studios.
func NewPoller(api FarmAPI, studios []string, notifier *BudgetNotifier, dedup *storage.Dedup, cfg PollerConfig, logger *slog.Logger) *Poller {
	return &Poller{
		api:      api,
		studios:  studios,
		reload:   cfg.Studios,
		notifier: notifier,
		dedup:    dedup,
		groups:   cfg.Groups,
		metrics:  cfg.Metrics,
		prune:    cfg.Prune,
		logger:   logger,
	}
}

// Run repeats RunCycle every delay until ctx is cancelled. A zero delay runs
// a single cycle. Cancellation only interrupts the wait between cycles.
func (p *Poller) Run(ctx context.Context, delay time.Duration) error {
	for {
		if _, err := p.RunCycle(context.WithoutCancel(ctx)); err != nil {
			p.logger.Error("poll cycle finished with errors", "kind", model.KindOf(err).String(), "error", err)
		}

		if delay <= 0 {
			return nil
		}

		p.logger.Info("waiting for next cycle", "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("poller stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle polls every studio once. Errors from individual studios and farms
// are aggregated; the remaining studios and farms are still processed.
func (p *Poller) RunCycle(ctx context.Context) ([]model.StudioResult, error) {
	report := &model.CycleReport{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	logger := p.logger.With("cycle_id", report.ID)

	studios := p.studios
	if p.reload != nil {
		studios = p.reload()
	}
	logger.Info("poll cycle started", "studios", len(studios))

	seen := make(map[string]struct{})
	var errs *multierror.Error
	for _, studio := range studios {
		res, err := p.pollStudio(ctx, logger, studio, seen)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("studio %s: %w", studio, err))
		}
		report.Studios = append(report.Studios, res)
	}

	// A cycle that listed no budgets never prunes.
	err := errs.ErrorOrNil()
	if err == nil && p.prune && len(seen) > 0 {
		pruned, perr := p.dedup.Prune(ctx, seen)
		if perr != nil {
			logger.Error("prune alert records", "error", perr)
		}
		report.Pruned = pruned
	}

	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Error = err.Error()
	}
	p.record(report, err)

	logger.Info("poll cycle finished",
		"duration", report.FinishedAt.Sub(report.StartedAt),
		"errors", len(errs.WrappedErrors()),
	)
	return report.Studios, err
}

// LastCycle returns the report of the most recent cycle.
func (p *Poller) LastCycle() (model.CycleReport, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return model.CycleReport{}, false
	}
	return *p.last, true
}

func (p *Poller) record(report *model.CycleReport, err error) {
	p.mu.Lock()
	p.last = report
	p.mu.Unlock()

	if p.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.metrics.cycles.WithLabelValues(result).Inc()
	p.metrics.cycleDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())

	var over, notified int
	for _, s := range report.Studios {
		over += len(s.OverLimit)
		notified += len(s.Notified)
	}
	p.metrics.overLimit.Set(float64(over))
	p.metrics.notified.Add(float64(notified))
	p.metrics.pruned.Add(float64(len(report.Pruned)))
}

func (p *Poller) pollStudio(ctx context.Context, logger *slog.Logger, studio string, seen map[string]struct{}) (res model.StudioResult, err error) {
	res = model.StudioResult{Studio: studio}
	logger = logger.With("studio", studio)

	defer func() {
		if r := recover(); r != nil {
			err = model.NewError(model.KindUnexpected, "poll studio", fmt.Errorf("panic: %v", r))
			res.Errors = append(res.Errors, err.Error())
		}
		res.CheckedAt = time.Now().UTC()
	}()

	farms, err := p.api.ListFarms(ctx)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res, err
	}

	var errs *multierror.Error
	for _, farm := range farms {
		res.FarmsChecked++
		if err := p.pollFarm(ctx, logger, studio, farm, &res, seen); err != nil {
			logger.Error("poll farm", "farm", farm.ID, "kind", model.KindOf(err).String(), "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("farm %s: %v", farm.ID, err))
			errs = multierror.Append(errs, fmt.Errorf("farm %s: %w", farm.ID, err))
		}
	}

	logger.Info("studio checked",
		"farms", res.FarmsChecked,
		"over_limit", len(res.OverLimit),
		"notified", len(res.Notified),
	)
	return res, errs.ErrorOrNil()
}

func (p *Poller) pollFarm(ctx context.Context, logger *slog.Logger, studio string, farm model.Farm, res *model.StudioResult, seen map[string]struct{}) error {
	budgets, err := p.api.ListBudgets(ctx, farm.ID)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	for _, b := range budgets {
		seen[b.ID] = struct{}{}
	}

	over := SelectOverLimit(budgets, logger)
	res.OverLimit = append(res.OverLimit, over...)

	if p.groups != nil {
		if err := p.provisionGroups(ctx, logger, farm, res); err != nil {
			return err
		}
	}

	if len(over) == 0 {
		return nil
	}
	res.Notified = append(res.Notified, p.notifier.NotifyOverLimit(ctx, studio, over)...)
	return nil
}

// provisionGroups returns only listing errors. Group creation failures are
// logged and recorded on res so notification still proceeds.
func (p *Poller) provisionGroups(ctx context.Context, logger *slog.Logger, farm model.Farm, res *model.StudioResult) error {
	queues, err := p.api.ListQueues(ctx, farm.ID)
	if err != nil {
		return fmt.Errorf("list queues: %w", err)
	}

	created, err := p.groups.EnsureQueueGroups(ctx, queues)
	res.GroupsCreated = append(res.GroupsCreated, created...)
	if err != nil {
		logger.Error("ensure queue groups", "farm", farm.ID, "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("farm %s groups: %v", farm.ID, err))
	}
	return nil
}
