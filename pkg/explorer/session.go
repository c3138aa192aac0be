package explorer

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/locate"
	"github.com/graphport/graphport/pkg/observability"
	"github.com/graphport/graphport/pkg/viewstate"
)

// Session bundles the interactive state of one graph view: the current
// snapshot, the group controller, and the selection. One session lives for
// one view instance; a data refresh swaps the snapshot in place and keeps
// the user's state.
type Session struct {
	viewID    string
	snap      *assetgraph.Snapshot
	Groups    *Groups
	Selection *Selection
}

// NewSession creates a session for a view. store and resolver may be nil
// (no persistence, no off-snapshot resolution).
func NewSession(ctx context.Context, viewID string, snap *assetgraph.Snapshot, store viewstate.Store, resolver locate.Resolver, logger *log.Logger) *Session {
	return &Session{
		viewID:    viewID,
		snap:      snap,
		Groups:    NewGroups(ctx, viewID, snap, store, logger),
		Selection: NewSelection(viewID, snap, resolver, logger),
	}
}

// ViewID returns the stable view identifier.
func (s *Session) ViewID() string { return s.viewID }

// Snapshot returns the current snapshot.
func (s *Session) Snapshot() *assetgraph.Snapshot { return s.snap }

// ApplySnapshot swaps in a freshly fetched snapshot. Selection and
// expansion state persist; expanded IDs for removed groups are dropped.
func (s *Session) ApplySnapshot(ctx context.Context, snap *assetgraph.Snapshot) {
	s.snap = snap
	s.Groups.SetSnapshot(ctx, snap)
	s.Selection.SetSnapshot(snap)
}

// RequestGroupFilter asks the host view to narrow its scope to one group.
// Unknown groups are no-ops.
func (s *Session) RequestGroupFilter(ctx context.Context, id assetgraph.GroupID) {
	if !s.snap.HasGroup(id) {
		return
	}
	observability.Explorer().OnGroupFilterRequested(ctx, s.viewID, string(id))
}
