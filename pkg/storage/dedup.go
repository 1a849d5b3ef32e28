package storage

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// Dedup decides whether an over-limit budget was already alerted for its
// current limit. Lookup failures bias toward sending rather than suppressing.
type Dedup struct {
	store  Storage
	logger *slog.Logger
}

// NewDedup wraps store.
func NewDedup(store Storage, logger *slog.Logger) *Dedup {
	return &Dedup{store: store, logger: logger}
}

// Store returns the underlying storage.
func (d *Dedup) Store() Storage { return d.store }

// WasAlreadyNotified compares the stored limit for budgetID with limit.
// Limits compare exactly on the value written by RecordNotified.
func (d *Dedup) WasAlreadyNotified(ctx context.Context, budgetID string, limit float64) model.AlertState {
	records, err := d.store.List(ctx)
	if err != nil {
		d.logger.Error("read alert store", "budget", budgetID, "error", err)
		return model.AlertStateUnknown
	}
	if len(records) == 0 {
		return model.AlertStateUnknown
	}

	r, ok := records[budgetID]
	if ok && r.Limit == limit {
		return model.AlertStateNotified
	}
	return model.AlertStateNotNotified
}

// RecordNotified upserts budgetID -> limit.
func (d *Dedup) RecordNotified(ctx context.Context, budgetID string, limit float64) error {
	err := d.store.Set(ctx, budgetID, limit)
	if errors.Is(err, ErrMalformedStore) {
		d.logger.Warn("alert store was malformed and has been rewritten", "error", err)
		return nil
	}
	return err
}

// Prune deletes records whose budget ID is not in keep and returns the
// removed IDs in sorted order.
func (d *Dedup) Prune(ctx context.Context, keep map[string]struct{}) ([]string, error) {
	records, err := d.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var stale []string
	for id := range records {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}
	sort.Strings(stale)

	if err := d.store.Delete(ctx, stale...); err != nil {
		return nil, err
	}
	d.logger.Info("pruned alert records", "count", len(stale), "budgets", stale)
	return stale, nil
}
