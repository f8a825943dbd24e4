package inventory

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Store owns the currently loaded inventory snapshot and its file path.
// Readers get clones; only Replace/Save mutate the held table. A single save
// may be in flight at a time; a concurrent save request is rejected with
// ErrSaveInProgress instead of being queued.
type Store struct {
	mu     sync.RWMutex
	saveMu sync.Mutex
	path   string
	table  Table
	loaded bool
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the configured inventory file path.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// SetPath points the store at a different inventory file. The held snapshot
// is invalidated until the next Reload.
func (s *Store) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.loaded = false
	s.table = Table{}
}

// Reload reads the inventory file from disk and replaces the held snapshot.
func (s *Store) Reload() (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return Table{}, fmt.Errorf("%w: no inventory file configured", ErrFileFormat)
	}
	t, err := Load(s.path)
	if err != nil {
		s.loaded = false
		return Table{}, err
	}
	s.table = t
	s.loaded = true
	return t.Clone(), nil
}

// Snapshot returns a clone of the held table.
func (s *Store) Snapshot() (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Table{}, fmt.Errorf("%w: inventory not loaded", ErrFileFormat)
	}
	return s.table.Clone(), nil
}

// Loaded reports whether a snapshot is held.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// SaveTable persists t to the inventory file and adopts it as the held
// snapshot. Returns ErrSaveInProgress if another save is running.
func (s *Store) SaveTable(t Table) error {
	if !s.saveMu.TryLock() {
		return ErrSaveInProgress
	}
	defer s.saveMu.Unlock()

	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("%w: no inventory file configured", ErrFileFormat)
	}

	if err := Save(t, path); err != nil {
		return err
	}

	s.mu.Lock()
	s.table = t.Clone()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// BackupCopy copies the inventory file to <path>.bak and returns the backup
// path, used as the rollback point for two-phase invoice commits. A missing
// source file is not an error; the returned path is empty.
func (s *Store) BackupCopy() (string, error) {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return "", nil
	}
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open inventory for backup: %w", err)
	}
	defer src.Close()

	bakPath := path + ".bak"
	dst, err := os.Create(bakPath)
	if err != nil {
		return "", fmt.Errorf("create inventory backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("copy inventory backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close inventory backup: %w", err)
	}
	return bakPath, nil
}

// DiscardFile removes the inventory file and drops the held snapshot. Used to
// unwind a commit that created the file when no previous copy existed.
func (s *Store) DiscardFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove inventory file: %w", err)
	}
	s.table = Table{}
	s.loaded = false
	return nil
}

// RestoreBackup replaces the inventory file with the backup copy and reloads
// the snapshot from it.
func (s *Store) RestoreBackup(bakPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bakPath == "" || s.path == "" {
		return fmt.Errorf("no backup copy to restore")
	}
	if err := os.Rename(bakPath, s.path); err != nil {
		return fmt.Errorf("restore inventory backup: %w", err)
	}
	t, err := Load(s.path)
	if err != nil {
		s.loaded = false
		return err
	}
	s.table = t
	s.loaded = true
	return nil
}
