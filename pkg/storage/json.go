package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// ErrMalformedStore is returned when the store file does not hold a JSON object.
var ErrMalformedStore = errors.New("malformed alert store")

// JSONFile keeps every record in a single JSON object:
//
//	{ "<budget_id>": { "limit": <number> }, ... }
//
// Every write reads the whole file, merges the change and writes it back.
type JSONFile struct {
	path string
}

// NewJSONFile returns a store backed by the file at path. The file and its
// directory are created on first write.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file location.
func (s *JSONFile) Path() string { return s.path }

// read loads the mapping. A missing file is an empty mapping. A malformed
// file yields an empty mapping together with ErrMalformedStore.
func (s *JSONFile) read() (map[string]model.AlertRecord, error) {
	records := make(map[string]model.AlertRecord)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return records, model.NewError(model.KindLocalState, "read alert store", err)
	}
	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return make(map[string]model.AlertRecord), model.NewError(model.KindLocalState, "parse alert store",
			fmt.Errorf("%w: %s: %v", ErrMalformedStore, s.path, err))
	}
	// A top-level null decodes without error and leaves records nil.
	if records == nil {
		return make(map[string]model.AlertRecord), model.NewError(model.KindLocalState, "parse alert store",
			fmt.Errorf("%w: %s: top-level value is not an object", ErrMalformedStore, s.path))
	}
	for id, r := range records {
		r.BudgetID = id
		records[id] = r
	}
	return records, nil
}

func (s *JSONFile) write(records map[string]model.AlertRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return model.NewError(model.KindLocalState, "create alert store directory", err)
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal alert store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return model.NewError(model.KindLocalState, "write alert store", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return model.NewError(model.KindLocalState, "replace alert store", err)
	}
	return nil
}

func (s *JSONFile) Get(_ context.Context, budgetID string) (*model.AlertRecord, error) {
	records, err := s.read()
	if err != nil {
		return nil, err
	}
	r, ok := records[budgetID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *JSONFile) List(_ context.Context) (map[string]model.AlertRecord, error) {
	return s.read()
}

// Set merges the record into the stored mapping. A malformed file is
// replaced by a mapping holding only the new record; the parse error is
// still returned alongside a successful write so callers can log it.
func (s *JSONFile) Set(_ context.Context, budgetID string, limit float64) error {
	records, readErr := s.read()
	if readErr != nil && !errors.Is(readErr, ErrMalformedStore) {
		return readErr
	}

	records[budgetID] = model.AlertRecord{BudgetID: budgetID, Limit: limit}
	if err := s.write(records); err != nil {
		return err
	}
	return readErr
}

func (s *JSONFile) Delete(_ context.Context, budgetIDs ...string) error {
	records, err := s.read()
	if err != nil {
		return err
	}

	changed := false
	for _, id := range budgetIDs {
		if _, ok := records[id]; ok {
			delete(records, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(records)
}

func (s *JSONFile) Close() error { return nil }
