// Package layout computes pixel bounds for graph snapshots.
//
// The explorer treats layout as an external collaborator: it hands a
// snapshot and the expanded-group set to a [Provider] and receives a
// [Result] of per-entity bounds. Layout runs asynchronously through the
// [Coordinator], which guarantees that a stale in-flight result is never
// applied after a newer request (supersede semantics).
//
// The production provider runs Graphviz (dot engine) through
// goccy/go-graphviz and parses its plain output format.
package layout

import (
	"context"

	"github.com/graphport/graphport/pkg/assetgraph"
)

// Point is one coordinate of an edge route, in screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box in screen space. Bounds are produced
// by layout and consumed read-only by the render scheduler.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point (x, y) lies inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// Center returns the midpoint of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Union returns the smallest rect covering both r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.X+r.Width, o.X+o.Width)
	y1 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Pad returns the rect grown by d on every side.
func (r Rect) Pad(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// EdgeKey identifies one edge route in a result.
type EdgeKey struct {
	From assetgraph.NodeID `json:"from"`
	To   assetgraph.NodeID `json:"to"`
}

// Result is one completed layout pass. Seq is assigned by the coordinator
// and orders results against requests.
type Result struct {
	NodeBounds  map[assetgraph.NodeID]Rect  `json:"node_bounds"`
	GroupBounds map[assetgraph.GroupID]Rect `json:"group_bounds"`
	EdgeRoutes  map[EdgeKey][]Point         `json:"-"`
	Seq         uint64                      `json:"seq"`
}

// Provider computes bounds for a snapshot given the expanded-group set.
// Implementations may block; they must honor ctx cancellation.
type Provider interface {
	Layout(ctx context.Context, snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) (*Result, error)
}
