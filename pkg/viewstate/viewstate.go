// Package viewstate persists per-view UI state across reloads.
//
// The explorer keeps the user's expanded-group set and view options alive
// between sessions, keyed by a stable view identifier, so re-fetching graph
// data never resets the view. This package defines the storage interface and
// three backends:
//   - file: JSON files under the user state directory, for CLI use
//   - redis: shared storage for multi-instance deployments
//   - memory: for tests and ephemeral sessions
//
// # Usage
//
//	store, err := viewstate.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	st, err := store.Load(ctx, viewID)
//	if err != nil {
//	    return err
//	}
//	if st == nil {
//	    st = viewstate.NewState()
//	}
//
// Corrupt or missing persisted state is never an error: Load reports it as
// absent and the caller starts from defaults.
package viewstate

import (
	"context"
	"time"
)

// Options are the persisted view rendering options.
type Options struct {
	ShowSecondaryEdges bool `json:"show_secondary_edges"`
	DimUnselected      bool `json:"dim_unselected"`
}

// DefaultOptions returns the options for a view that was never configured.
func DefaultOptions() Options {
	return Options{ShowSecondaryEdges: true}
}

// State is the durable per-view state.
type State struct {
	ExpandedGroups []string  `json:"expanded_groups"`
	Options        Options   `json:"options"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewState returns an empty state with default options. All groups start
// collapsed.
func NewState() *State {
	return &State{Options: DefaultOptions()}
}

// Store is the interface for view-state storage backends.
type Store interface {
	// Load retrieves the state for a view.
	// Returns nil, nil when no state is persisted.
	Load(ctx context.Context, viewID string) (*State, error)

	// Save persists the state for a view, overwriting any previous state.
	Save(ctx context.Context, viewID string, state *State) error

	// Delete removes the persisted state for a view.
	Delete(ctx context.Context, viewID string) error

	// Close releases backend resources.
	Close() error
}
