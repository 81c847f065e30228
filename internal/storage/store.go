// Package storage owns the authoritative device table: a single CSV file
// read and rewritten whole. Every mutation in the system funnels through
// Save; there is no row-level write.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store is a file-backed table store. Load and Save are serialized by a
// coarse in-process mutex; across processes the model stays last-write-wins.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open prepares a store backed by the CSV file at path. The file itself
// is created lazily on first Load.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: empty data path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file and returns the full table. If the file
// does not exist (or is empty), Load materializes it with the canonical
// header and zero rows, then returns the empty table. The write on the
// read path is intentional self-healing.
func (s *Store) Load() (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Table, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
		if werr := s.write(Table{}); werr != nil {
			return nil, fmt.Errorf("initializing backing file: %w", werr)
		}
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backing file: %w", err)
	}

	table, err := DecodeCSV(data)
	if err != nil {
		return nil, fmt.Errorf("reading backing file: %w", err)
	}
	return table, nil
}

// Save serializes the full table back to the backing file as a total
// overwrite. This is the sole persistence primitive.
func (s *Store) Save(t Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(t)
}

// write replaces the backing file atomically: serialize to a sibling
// temp file, then rename over the target.
func (s *Store) write(t Table) error {
	data, err := EncodeCSV(t)
	if err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing backing file: %w", err)
	}
	return nil
}

// Mutate runs fn against the freshly loaded table under the store lock
// and persists whatever fn returns. If fn errors, nothing is written and
// the backing file is untouched.
func (s *Store) Mutate(fn func(Table) (Table, error)) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.load()
	if err != nil {
		return nil, err
	}
	updated, err := fn(table)
	if err != nil {
		return nil, err
	}
	if err := s.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}
