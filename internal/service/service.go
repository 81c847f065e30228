// Package service implements the query, mutation, and import/export
// operations over the device table. Authorization is enforced here, at
// the boundary of every mutating call, before any file I/O.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/devboardhq/devboard/internal/auth"
	"github.com/devboardhq/devboard/internal/query"
	"github.com/devboardhq/devboard/internal/storage"
)

var validStatuses = map[string]bool{
	storage.StatusFaulty:     true,
	storage.StatusRepaired:   true,
	storage.StatusAwaitingPO: true,
	storage.StatusInspected:  true,
	storage.StatusUnknown:    true,
}

// Service wires the role gate and query engine around the record store.
// Every mutation is a whole-table read-modify-write through the store;
// across processes the model stays last-write-wins.
type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

// List returns the rows matching f in file order.
func (s *Service) List(f query.Filter) (storage.Table, error) {
	table, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return query.Apply(table, f), nil
}

// Get returns the first row whose id matches. With duplicate ids the
// first-in-file-order row wins, mirroring the match semantics of Edit
// and Delete acting on "rows with this id".
func (s *Service) Get(id string) (storage.Record, error) {
	table, err := s.store.Load()
	if err != nil {
		return storage.Record{}, err
	}
	for _, rec := range table {
		if rec.ID == id {
			return rec, nil
		}
	}
	return storage.Record{}, ErrNotFound
}

// StatusCounts aggregates the current table by status, largest bucket first.
func (s *Service) StatusCounts() ([]query.StatusCount, error) {
	table, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return query.CountByStatus(table), nil
}

// Add appends a new record and persists the table. Admin only. A blank
// id gets a generated one; a blank created_at gets the current date.
// There is no id uniqueness check: duplicate ids are allowed and later
// addressed by the match-all semantics of Edit and Delete.
func (s *Service) Add(sess auth.Session, rec storage.Record) (storage.Table, error) {
	if !sess.CanMutate() {
		return nil, ErrUnauthorized
	}
	if err := validateStatus(rec.Status); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format("2006-01-02")
	}

	updated, err := s.store.Mutate(func(t storage.Table) (storage.Table, error) {
		return append(t, rec), nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("device added", "id", rec.ID, "status", rec.Status)
	return updated, nil
}

// Edit applies changes to every row whose id matches and persists the
// table. Admin only. Changes is a column-name to value map; rows sharing
// the id are all updated identically. Returns ErrNotFound, with nothing
// written, when no row matches.
func (s *Service) Edit(sess auth.Session, id string, changes map[string]string) (storage.Table, error) {
	if !sess.CanMutate() {
		return nil, ErrUnauthorized
	}
	for col, val := range changes {
		if !storage.IsColumn(col) {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalid, col)
		}
		if col == "status" {
			if err := validateStatus(val); err != nil {
				return nil, err
			}
		}
	}

	matched := 0
	updated, err := s.store.Mutate(func(t storage.Table) (storage.Table, error) {
		for i := range t {
			if t[i].ID != id {
				continue
			}
			matched++
			for col, val := range changes {
				t[i].SetField(col, val)
			}
		}
		if matched == 0 {
			return nil, ErrNotFound
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("device edited", "id", id, "rows", matched)
	return updated, nil
}

// Delete removes every row whose id matches and persists the table.
// Admin only. Returns ErrNotFound, with nothing written, when no row
// matches.
func (s *Service) Delete(sess auth.Session, id string) (storage.Table, error) {
	if !sess.CanMutate() {
		return nil, ErrUnauthorized
	}

	removed := 0
	updated, err := s.store.Mutate(func(t storage.Table) (storage.Table, error) {
		kept := make(storage.Table, 0, len(t))
		for _, rec := range t {
			if rec.ID == id {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		if removed == 0 {
			return nil, ErrNotFound
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("device deleted", "id", id, "rows", removed)
	return updated, nil
}

// Export serializes the current table in the given format. Any role may
// export.
func (s *Service) Export(format Format) ([]byte, error) {
	table, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return storage.EncodeCSV(table)
	case FormatXLSX:
		return encodeXLSX(table)
	}
	return nil, fmt.Errorf("%w: unsupported export format %q", ErrInvalid, format)
}

// Import parses data as the given format, every cell as text, and
// replaces the entire stored table with the parsed rows. Admin only.
// All-or-nothing: on any parse failure the stored table is untouched
// and the cause comes back wrapped in an ImportError.
func (s *Service) Import(sess auth.Session, data []byte, format Format) (storage.Table, error) {
	if !sess.CanMutate() {
		return nil, ErrUnauthorized
	}

	var table storage.Table
	var err error
	switch format {
	case FormatCSV:
		table, err = storage.DecodeCSV(data)
	case FormatXLSX:
		table, err = decodeXLSX(data)
	default:
		return nil, importErrorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &ImportError{Cause: err}
	}

	updated, err := s.store.Mutate(func(storage.Table) (storage.Table, error) {
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("table imported", "rows", len(table), "format", format)
	return updated, nil
}

func validateStatus(status string) error {
	if status == "" || validStatuses[status] {
		return nil
	}
	return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
}
