package viewport

import (
	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/explorer"
	"github.com/graphport/graphport/pkg/layout"
	"github.com/graphport/graphport/pkg/memo"
	"github.com/graphport/graphport/pkg/viewstate"
)

// Scale thresholds for level-of-detail classification.
const (
	// DefaultGroupsOnlyScale is the scale below which individual nodes are
	// suppressed entirely and only collapsed-group placeholders draw.
	DefaultGroupsOnlyScale = 0.15

	// DefaultMinimalScale is the scale below which nodes draw compact.
	// At or above it, nodes draw their full representation.
	DefaultMinimalScale = 0.6
)

// Scheduler builds render plans. One scheduler serves one view for its
// lifetime; its sprite cache is keyed by snapshot and node identity, so
// swapping in a new snapshot naturally invalidates it without explicit
// eviction.
type Scheduler struct {
	GroupsOnlyScale float64
	MinimalScale    float64

	sprites *memo.Cache
}

// NewScheduler creates a scheduler with default thresholds.
func NewScheduler() *Scheduler {
	return &Scheduler{
		GroupsOnlyScale: DefaultGroupsOnlyScale,
		MinimalScale:    DefaultMinimalScale,
		sprites:         memo.NewCache(),
	}
}

// Pass is the input for one render pass. Bounds come from the layout
// collaborator and are read-only; selection and group state are snapshots
// owned by their controllers.
type Pass struct {
	Snapshot  *assetgraph.Snapshot
	Bounds    *layout.Result
	Groups    *explorer.Groups
	Selection *explorer.Selection
	Options   viewstate.Options
	View      View
}

// BuildPlan runs culling, detail classification, and ordering for one
// pass. Entities with missing bounds are skipped for this pass only.
func (s *Scheduler) BuildPlan(p Pass) *Plan {
	plan := &Plan{View: p.View}
	if p.Snapshot == nil || p.Bounds == nil {
		return plan
	}

	collapsed := s.appendGroupOps(plan, p)
	s.appendEdgeOps(plan, p, collapsed)
	s.appendNodeOps(plan, p, collapsed)
	return plan
}

// appendGroupOps draws collapsed-group placeholders, then expanded-group
// boxes, each sorted by ascending ID length so nested groups stay on top.
// It returns the collapsed set for edge reattachment and node suppression.
func (s *Scheduler) appendGroupOps(plan *Plan, p Pass) map[assetgraph.GroupID]bool {
	collapsed := make(map[assetgraph.GroupID]bool)

	var collapsedIDs, expandedIDs []assetgraph.GroupID
	for _, id := range p.Snapshot.GroupIDs() {
		if p.Groups != nil && p.Groups.IsExpanded(id) {
			expandedIDs = append(expandedIDs, id)
		} else {
			collapsed[id] = true
			collapsedIDs = append(collapsedIDs, id)
		}
	}
	sortGroupIDs(collapsedIDs)
	sortGroupIDs(expandedIDs)

	for _, id := range collapsedIDs {
		b, ok := p.Bounds.GroupBounds[id]
		if !ok || !b.Intersects(p.View.Visible) {
			continue
		}
		g := p.Snapshot.Group(id)
		plan.Ops = append(plan.Ops, Op{
			Kind:    OpGroupPlaceholder,
			GroupID: id,
			Bounds:  b,
			Sprite:  Sprite{Label: g.Name, Detail: DetailPlaceholder},
		})
	}

	if p.View.Scale < s.GroupsOnlyScale {
		// Zoomed far out: expanded groups and their contents are
		// suppressed along with individual nodes.
		return collapsed
	}

	for _, id := range expandedIDs {
		b, ok := p.Bounds.GroupBounds[id]
		if !ok || !b.Intersects(p.View.Visible) {
			continue
		}
		g := p.Snapshot.Group(id)
		plan.Ops = append(plan.Ops, Op{
			Kind:    OpGroupBox,
			GroupID: id,
			Bounds:  b,
			Sprite:  Sprite{Label: g.Name},
		})
	}
	return collapsed
}

// appendEdgeOps draws edges after groups and before nodes. Edges with an
// endpoint inside a collapsed group reattach to the group placeholder;
// edges that become self-loops after reattachment are dropped, as are
// duplicates of an already-drawn reattached edge.
func (s *Scheduler) appendEdgeOps(plan *Plan, p Pass, collapsed map[assetgraph.GroupID]bool) {
	// Zoomed far out only collapsed placeholders draw; edges are
	// suppressed along with the nodes.
	if p.View.Scale < s.GroupsOnlyScale {
		return
	}
	seen := make(map[layout.EdgeKey]bool)

	for _, e := range p.Snapshot.Edges() {
		if !p.Options.ShowSecondaryEdges && s.isSecondary(p.Snapshot, e) {
			continue
		}

		fromBounds, fromGroup, ok := s.endpoint(p, collapsed, e.From)
		if !ok {
			continue
		}
		toBounds, toGroup, ok := s.endpoint(p, collapsed, e.To)
		if !ok {
			continue
		}

		// Collapsed into the same placeholder: nothing to draw.
		if fromGroup != "" && fromGroup == toGroup {
			continue
		}

		key := layout.EdgeKey{From: e.From, To: e.To}
		if fromGroup != "" {
			key.From = assetgraph.NodeID(fromGroup)
		}
		if toGroup != "" {
			key.To = assetgraph.NodeID(toGroup)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		route := p.Bounds.EdgeRoutes[layout.EdgeKey{From: e.From, To: e.To}]
		if len(route) == 0 || fromGroup != "" || toGroup != "" {
			route = []layout.Point{fromBounds.Center(), toBounds.Center()}
		}
		bounds := fromBounds.Union(toBounds)
		if !bounds.Intersects(p.View.Visible) {
			continue
		}
		plan.Ops = append(plan.Ops, Op{Kind: OpEdge, Edge: key, Bounds: bounds, Route: route})
	}
}

// endpoint resolves an edge endpoint to its drawable bounds. Members of
// collapsed groups resolve to the group placeholder bounds; the returned
// group ID is non-empty in that case. ok is false when no bounds are
// available this pass.
func (s *Scheduler) endpoint(p Pass, collapsed map[assetgraph.GroupID]bool, id assetgraph.NodeID) (layout.Rect, assetgraph.GroupID, bool) {
	n := p.Snapshot.Node(id)
	if n == nil {
		return layout.Rect{}, "", false
	}
	if n.GroupID != "" && collapsed[n.GroupID] {
		b, ok := p.Bounds.GroupBounds[n.GroupID]
		return b, n.GroupID, ok
	}
	b, ok := p.Bounds.NodeBounds[id]
	return b, "", ok
}

// isSecondary reports whether an edge touches a placeholder node (an asset
// defined in another view). Those edges are context, not structure, and
// can be toggled off.
func (s *Scheduler) isSecondary(snap *assetgraph.Snapshot, e assetgraph.Edge) bool {
	if n := snap.Node(e.From); n != nil && n.IsPlaceholder() {
		return true
	}
	if n := snap.Node(e.To); n != nil && n.IsPlaceholder() {
		return true
	}
	return false
}

// appendNodeOps draws individual nodes last. Members of collapsed groups
// are suppressed (the placeholder stands in for them), and below the
// groups-only threshold no nodes draw at all.
func (s *Scheduler) appendNodeOps(plan *Plan, p Pass, collapsed map[assetgraph.GroupID]bool) {
	if p.View.Scale < s.GroupsOnlyScale {
		return
	}
	detail := DetailFull
	if p.View.Scale < s.MinimalScale {
		detail = DetailMinimal
	}

	selCount := 0
	if p.Selection != nil {
		selCount = p.Selection.Len()
	}

	for _, id := range p.Snapshot.NodeIDs() {
		n := p.Snapshot.Node(id)
		if n.GroupID != "" && collapsed[n.GroupID] {
			continue
		}
		b, ok := p.Bounds.NodeBounds[id]
		if !ok || !b.Intersects(p.View.Visible) {
			continue
		}

		selected := p.Selection != nil && p.Selection.Contains(id)
		dimmed := p.Options.DimUnselected && selCount > 0 && !selected
		plan.Ops = append(plan.Ops, Op{
			Kind:   OpNode,
			NodeID: id,
			Bounds: b,
			Sprite: s.sprite(p.Snapshot, n, detail, selected, dimmed),
		})
	}
}

// sprite computes the derived visual state for a node, memoized on the
// identity of the snapshot and node plus the value inputs. Passes over a
// reference-stable snapshot reuse the cached sprite; a new snapshot
// allocates new node objects and misses naturally.
func (s *Scheduler) sprite(snap *assetgraph.Snapshot, n *assetgraph.Node, detail Detail, selected, dimmed bool) Sprite {
	keys := []memo.Key{
		memo.ByRef(snap), memo.ByRef(n),
		memo.ByVal(detail), memo.ByVal(selected), memo.ByVal(dimmed),
	}
	return memo.Get(s.sprites, keys, func() Sprite {
		sp := Sprite{Detail: detail, Selected: selected, Dimmed: dimmed, Label: string(n.ID)}
		if n.Definition != nil {
			sp.Kind = n.Definition.ComputeKind
			if len(n.Definition.Path) > 0 {
				sp.Label = n.Definition.Path[len(n.Definition.Path)-1]
			}
		}
		return sp
	})
}
