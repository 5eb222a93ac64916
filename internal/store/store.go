package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"TickerCard/internal/model"
)

var (
	// ErrNoSnapshot is returned by Load when no refresh has succeeded yet.
	ErrNoSnapshot = errors.New("snapshot not found")
	// ErrCorrupt is returned by Load when the file cannot be decoded.
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Store is the single-file snapshot store. Writes go to a temporary file in the
// same directory and are renamed over the target, so readers observe either the
// previous or the new table, never a partial one.
type Store struct {
	mu      sync.Mutex
	path    string
	csvPath string
}

// New creates a Store for path. csvPath may be empty to disable the CSV mirror.
func New(path, csvPath string) *Store {
	return &Store{path: path, csvPath: csvPath}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Load reads the whole snapshot.
func (s *Store) Load() (model.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i, r := range snap {
		if !r.Indicator.Valid() {
			return nil, fmt.Errorf("%w: row %d has indicator %q", ErrCorrupt, i, r.Indicator)
		}
	}
	return snap, nil
}

// Save replaces the snapshot (and the CSV mirror, if configured).
func (s *Store) Save(snap model.Snapshot) error {
	if snap == nil {
		snap = model.Snapshot{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if s.csvPath != "" {
		if err := writeCSV(s.csvPath, snap); err != nil {
			return fmt.Errorf("write csv mirror: %w", err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
