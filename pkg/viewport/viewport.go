// Package viewport turns graph state into an ordered render plan.
//
// Each pass the [Scheduler] combines the current snapshot, the externally
// supplied layout bounds, the expanded-group set, and the selection into a
// [Plan]: a flat, ordered list of draw operations. Three mechanisms keep a
// pass cheap on graphs with thousands of nodes:
//
//   - Culling: entities whose bounds do not intersect the visible rect are
//     discarded before any per-entity work runs.
//   - Level of detail: two scale thresholds decide whether nodes draw at
//     all, and whether they draw compact or full.
//   - Memoized sprites: per-node visual state is computed through pkg/memo
//     keyed on reference-stable inputs, so reference-identical passes skip
//     recomputation.
//
// Entities without bounds (not yet laid out) are skipped for the pass and
// reappear once bounds arrive; that is degradation, not an error.
package viewport

import (
	"slices"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/layout"
)

// Detail is the rendering fidelity chosen for an entity based on zoom
// scale.
type Detail int

// Detail levels, ascending fidelity.
const (
	// DetailPlaceholder draws an aggregate marker for a collapsed group.
	DetailPlaceholder Detail = iota

	// DetailMinimal draws a node as a compact box without decorations.
	DetailMinimal

	// DetailFull draws the complete node representation.
	DetailFull
)

func (d Detail) String() string {
	switch d {
	case DetailPlaceholder:
		return "placeholder"
	case DetailMinimal:
		return "minimal"
	case DetailFull:
		return "full"
	}
	return "unknown"
}

// OpKind discriminates draw operations.
type OpKind int

// Draw operation kinds, in draw order.
const (
	OpGroupPlaceholder OpKind = iota // collapsed group aggregate
	OpGroupBox                       // expanded group background
	OpEdge
	OpNode
)

func (k OpKind) String() string {
	switch k {
	case OpGroupPlaceholder:
		return "group-placeholder"
	case OpGroupBox:
		return "group-box"
	case OpEdge:
		return "edge"
	case OpNode:
		return "node"
	}
	return "unknown"
}

// Sprite is the derived visual state of one node for one pass.
type Sprite struct {
	Label    string
	Kind     string // compute kind from the definition
	Detail   Detail
	Selected bool
	Dimmed   bool
}

// Op is one draw instruction. Exactly one of NodeID, GroupID, Edge is
// meaningful depending on Kind.
type Op struct {
	Kind    OpKind
	NodeID  assetgraph.NodeID
	GroupID assetgraph.GroupID
	Edge    layout.EdgeKey
	Bounds  layout.Rect
	Route   []layout.Point // edge ops only
	Sprite  Sprite         // node and placeholder ops
}

// View is the camera state for one pass.
type View struct {
	Scale   float64
	Visible layout.Rect
}

// Plan is the ordered draw list for one pass. Ops are stored in draw
// order: collapsed groups, expanded groups, edges, nodes.
type Plan struct {
	Ops  []Op
	View View
}

// HitTest maps a screen coordinate back to the topmost entity whose bounds
// contain it, respecting draw order (last drawn wins). Edges are not click
// targets. Returns nil when the point hits empty background.
func (p *Plan) HitTest(x, y float64) *Op {
	for i := len(p.Ops) - 1; i >= 0; i-- {
		op := &p.Ops[i]
		if op.Kind == OpEdge {
			continue
		}
		if op.Bounds.Contains(x, y) {
			return op
		}
	}
	return nil
}

// Nodes returns the node ops of the plan, in draw order.
func (p *Plan) Nodes() []Op {
	return p.opsOfKind(OpNode)
}

// Placeholders returns the collapsed-group placeholder ops.
func (p *Plan) Placeholders() []Op {
	return p.opsOfKind(OpGroupPlaceholder)
}

// Edges returns the edge ops.
func (p *Plan) Edges() []Op {
	return p.opsOfKind(OpEdge)
}

func (p *Plan) opsOfKind(k OpKind) []Op {
	var ops []Op
	for _, op := range p.Ops {
		if op.Kind == k {
			ops = append(ops, op)
		}
	}
	return ops
}

// sortGroupIDs orders group IDs by ascending ID length, ties by ID, so
// parent groups draw before (and never occlude) nested child groups.
func sortGroupIDs(ids []assetgraph.GroupID) {
	slices.SortFunc(ids, func(a, b assetgraph.GroupID) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
}
