package viewstate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore is a file-based view-state store for CLI use.
// Each view's state is one JSON file named after the hashed view ID.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based view-state store.
// If baseDir is empty, defaults to ~/.local/state/graphport/views/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "state", "graphport", "views")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create view-state dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// statePath hashes the view ID so arbitrary identifiers map to safe names.
func (s *FileStore) statePath(viewID string) string {
	sum := sha256.Sum256([]byte(viewID))
	return filepath.Join(s.baseDir, hex.EncodeToString(sum[:16])+".json")
}

func (s *FileStore) Load(ctx context.Context, viewID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.statePath(viewID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read view state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		// Corrupt state is treated as absent.
		return nil, nil
	}
	return &st, nil
}

func (s *FileStore) Save(ctx context.Context, viewID string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	if err := os.WriteFile(s.statePath(viewID), data, 0o600); err != nil {
		return fmt.Errorf("write view state: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.statePath(viewID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove view state: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for view-state files.
func (s *FileStore) Path() string { return s.baseDir }

var _ Store = (*FileStore)(nil)
