package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Store persists the wallet snapshot file. Writes are guarded with a file
// lock so a second process cannot interleave a partial overwrite.
type Store struct {
	path string
	lock *flock.Flock
}

func NewStore(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

func (s *Store) Path() string { return s.path }

// Load reads a previously persisted snapshot. A missing file returns
// (nil, nil); any other failure is reported so the caller can log it and
// proceed without prior state.
func (s *Store) Load() (*Snapshot, error) {
	buf, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wallet snapshot: %w", err)
	}
	snap, err := ParseSnapshot(buf)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save overwrites the snapshot file. The file carries a private key, so it is
// written with owner-only permissions.
func (s *Store) Save(snap Snapshot) error {
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock wallet store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock wallet store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	buf, err := snap.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create wallet directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, buf, 0o600); err != nil {
		return fmt.Errorf("write wallet snapshot: %w", err)
	}
	return nil
}
