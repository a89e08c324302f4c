package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	xlogger "MacroPulse/pkg/logger"
)

// Store holds the latest snapshot in memory and mirrors it to one JSON file.
// The file is replaced wholesale on every publish via a temp file and rename,
// so readers never observe a partial write.
type Store struct {
	path   string
	logger *xlogger.Logger

	mu   sync.RWMutex
	snap *models.Snapshot
}

func New(path string, logger *xlogger.Logger) *Store {
	return &Store{path: path, logger: logger}
}

var _ drepo.SnapshotStore = (*Store)(nil)

// Current returns the latest published snapshot, ok=false before the first
// publish on a cold start with no file to hydrate from.
func (s *Store) Current() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, false
	}
	return s.snap, true
}

// Replace publishes a new snapshot. The in-memory slot only advances when the
// file write succeeded, so memory and disk cannot diverge.
func (s *Store) Replace(snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(snap); err != nil {
		return err
	}
	s.snap = snap
	return nil
}

// Hydrate loads the last persisted snapshot, if any. A missing file is not an
// error; a corrupt one is logged and discarded so the next refresh overwrites
// it.
func (s *Store) Hydrate() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot file: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		s.logger.Warn("discarding corrupt snapshot file", xlogger.String("path", s.path), xlogger.Error(err))
		return nil
	}

	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()
	return nil
}

func (s *Store) write(snap *models.Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("swap snapshot: %w", err)
	}
	return nil
}
