// Package explorer owns the interactive state of one graph view: the
// ordered selection and the expanded-group set.
//
// Both pieces of state survive snapshot swaps, so re-fetching graph data
// never resets the user's view. The expanded-group set is additionally
// written through a [viewstate.Store] keyed by the stable view identifier
// and so survives process restarts. All mutation happens synchronously on
// the caller's event loop; the only asynchronous path is the location
// lookup for tokens outside the current snapshot.
//
// Upward-facing notifications (selection changed, group filter requested,
// location found) go through the observability hooks, so the host view
// decides how to react without this package depending on it.
package explorer

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/viewstate"
)

// Groups owns the expanded-group set and persisted view options for one
// view. Every group starts collapsed; expansion state is UI state and never
// part of the snapshot.
type Groups struct {
	viewID   string
	store    viewstate.Store
	logger   *log.Logger
	snap     *assetgraph.Snapshot
	expanded map[assetgraph.GroupID]struct{}
	options  viewstate.Options
	focus    assetgraph.GroupID
	hasFocus bool
}

// NewGroups creates the group controller for a view, loading any persisted
// state from the store. A nil store disables persistence (an in-memory
// store is substituted). Persisted group IDs that do not exist in snap are
// dropped silently.
func NewGroups(ctx context.Context, viewID string, snap *assetgraph.Snapshot, store viewstate.Store, logger *log.Logger) *Groups {
	if store == nil {
		store = viewstate.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	g := &Groups{
		viewID:   viewID,
		store:    store,
		logger:   logger,
		snap:     snap,
		expanded: make(map[assetgraph.GroupID]struct{}),
		options:  viewstate.DefaultOptions(),
	}

	st, err := store.Load(ctx, viewID)
	if err != nil {
		logger.Warn("load view state failed, starting collapsed", "view", viewID, "err", err)
		return g
	}
	if st == nil {
		return g
	}
	g.options = st.Options
	for _, id := range st.ExpandedGroups {
		gid := assetgraph.GroupID(id)
		if snap.HasGroup(gid) {
			g.expanded[gid] = struct{}{}
		}
	}
	return g
}

// Expand marks a group expanded. Idempotent; unknown IDs are no-ops.
func (g *Groups) Expand(ctx context.Context, id assetgraph.GroupID) {
	if !g.snap.HasGroup(id) {
		return
	}
	if _, ok := g.expanded[id]; ok {
		return
	}
	g.expanded[id] = struct{}{}
	g.persist(ctx)
}

// Collapse marks a group collapsed and records it as the focus target for
// the next layout pass, so the view recenters on the just-collapsed group
// once new bounds arrive. Idempotent; unknown IDs are no-ops.
func (g *Groups) Collapse(ctx context.Context, id assetgraph.GroupID) {
	if !g.snap.HasGroup(id) {
		return
	}
	g.focus = id
	g.hasFocus = true
	if _, ok := g.expanded[id]; !ok {
		return
	}
	delete(g.expanded, id)
	g.persist(ctx)
}

// Toggle expands a collapsed group and collapses an expanded one.
func (g *Groups) Toggle(ctx context.Context, id assetgraph.GroupID) {
	if g.IsExpanded(id) {
		g.Collapse(ctx, id)
	} else {
		g.Expand(ctx, id)
	}
}

// ExpandAll expands every group of the current snapshot.
func (g *Groups) ExpandAll(ctx context.Context) {
	changed := false
	for _, id := range g.snap.GroupIDs() {
		if _, ok := g.expanded[id]; !ok {
			g.expanded[id] = struct{}{}
			changed = true
		}
	}
	if changed {
		g.persist(ctx)
	}
}

// CollapseAll collapses every group.
func (g *Groups) CollapseAll(ctx context.Context) {
	if len(g.expanded) == 0 {
		return
	}
	g.expanded = make(map[assetgraph.GroupID]struct{})
	g.persist(ctx)
}

// IsExpanded reports whether a group is expanded.
func (g *Groups) IsExpanded(id assetgraph.GroupID) bool {
	_, ok := g.expanded[id]
	return ok
}

// ExpandedIDs returns the expanded group IDs in sorted order.
func (g *Groups) ExpandedIDs() []assetgraph.GroupID {
	ids := make([]assetgraph.GroupID, 0, len(g.expanded))
	for id := range g.expanded {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// TakeFocusGroup returns the group to recenter on after the next layout
// pass and clears the pointer. The second result reports whether a focus
// target was pending.
func (g *Groups) TakeFocusGroup() (assetgraph.GroupID, bool) {
	if !g.hasFocus {
		return "", false
	}
	g.hasFocus = false
	return g.focus, true
}

// Options returns the current view options.
func (g *Groups) Options() viewstate.Options { return g.options }

// SetOptions replaces the view options and persists them.
func (g *Groups) SetOptions(ctx context.Context, opts viewstate.Options) {
	if g.options == opts {
		return
	}
	g.options = opts
	g.persist(ctx)
}

// SetSnapshot points the controller at a new snapshot. Expanded IDs for
// groups that no longer exist are dropped silently.
func (g *Groups) SetSnapshot(ctx context.Context, snap *assetgraph.Snapshot) {
	g.snap = snap
	dropped := false
	for id := range g.expanded {
		if !snap.HasGroup(id) {
			delete(g.expanded, id)
			dropped = true
		}
	}
	if dropped {
		g.persist(ctx)
	}
}

// persist writes the current state through the store. A write failure is
// logged and otherwise ignored: persistence is best-effort and never an
// error to the caller.
func (g *Groups) persist(ctx context.Context) {
	st := &viewstate.State{
		ExpandedGroups: make([]string, 0, len(g.expanded)),
		Options:        g.options,
	}
	for _, id := range g.ExpandedIDs() {
		st.ExpandedGroups = append(st.ExpandedGroups, string(id))
	}
	if err := g.store.Save(ctx, g.viewID, st); err != nil {
		g.logger.Warn("persist view state failed", "view", g.viewID, "err", err)
	}
}
