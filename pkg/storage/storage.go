package storage

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// Storage persists the last limit an alert was sent for, keyed by budget ID.
// Implementations are not safe for concurrent writers; run one poller per store.
type Storage interface {
	// Get returns nil, nil when there is no record for budgetID.
	Get(ctx context.Context, budgetID string) (*model.AlertRecord, error)

	// List returns every record keyed by budget ID.
	List(ctx context.Context) (map[string]model.AlertRecord, error)

	// Set upserts the record for budgetID.
	Set(ctx context.Context, budgetID string, limit float64) error

	// Delete removes the records for the given budget IDs.
	Delete(ctx context.Context, budgetIDs ...string) error

	// Close releases resources.
	Close() error
}

// Open returns the backend named by backend ("json" or "sqlite") at path.
func Open(backend, path string) (Storage, error) {
	switch backend {
	case "", "json":
		return NewJSONFile(path), nil
	case "sqlite":
		return NewSQLite(path)
	default:
		return nil, model.NewError(model.KindLocalState, "open storage", fmt.Errorf("unknown backend %q", backend))
	}
}
