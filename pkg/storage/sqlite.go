package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements Storage on an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, model.NewError(model.KindLocalState, "create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, budgetID string) (*model.AlertRecord, error) {
	r := model.AlertRecord{BudgetID: budgetID}
	err := s.db.QueryRowContext(ctx,
		`SELECT limit_usd FROM alert_records WHERE budget_id = ?`, budgetID,
	).Scan(&r.Limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewError(model.KindLocalState, "get alert record", err)
	}
	return &r, nil
}

func (s *SQLite) List(ctx context.Context) (map[string]model.AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT budget_id, limit_usd FROM alert_records ORDER BY budget_id`)
	if err != nil {
		return nil, model.NewError(model.KindLocalState, "list alert records", err)
	}
	defer rows.Close()

	records := make(map[string]model.AlertRecord)
	for rows.Next() {
		var r model.AlertRecord
		if err := rows.Scan(&r.BudgetID, &r.Limit); err != nil {
			return nil, fmt.Errorf("scan alert record: %w", err)
		}
		records[r.BudgetID] = r
	}
	return records, rows.Err()
}

func (s *SQLite) Set(ctx context.Context, budgetID string, limit float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_records (budget_id, limit_usd, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(budget_id) DO UPDATE SET
		   limit_usd = excluded.limit_usd,
		   updated_at = excluded.updated_at`,
		budgetID, limit, time.Now().UTC(),
	)
	if err != nil {
		return model.NewError(model.KindLocalState, "set alert record", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, budgetIDs ...string) error {
	if len(budgetIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(budgetIDs)), ",")
	args := make([]any, len(budgetIDs))
	for i, id := range budgetIDs {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM alert_records WHERE budget_id IN (%s)`, placeholders), args...)
	if err != nil {
		return model.NewError(model.KindLocalState, "delete alert records", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
