package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/explorer"
	"github.com/graphport/graphport/pkg/layout"
	"github.com/graphport/graphport/pkg/viewport"
)

func testExploreModel(ops ...viewport.Op) *exploreModel {
	return &exploreModel{
		scale:  1,
		width:  120,
		height: 40,
		plan:   &viewport.Plan{Ops: ops},
	}
}

func nodeOp(id assetgraph.NodeID, x, y float64) viewport.Op {
	return viewport.Op{
		Kind:   viewport.OpNode,
		NodeID: id,
		Bounds: layout.Rect{X: x, Y: y, Width: 72, Height: 36},
	}
}

func TestMoveCursorPicksNearestInCone(t *testing.T) {
	m := testExploreModel(
		nodeOp("A", 0, 0),
		nodeOp("B", 200, 0),   // right of A
		nodeOp("C", 500, 0),   // further right
		nodeOp("D", 0, 200),   // below A
		viewport.Op{Kind: viewport.OpGroupPlaceholder, GroupID: "g1", Bounds: layout.Rect{X: 0, Y: -200, Width: 100, Height: 50}},
	)
	m.cursor = cursorRef{node: "A"}

	m.moveCursor(explorer.DirRight)
	if m.cursor.node != "B" {
		t.Errorf("right from A = %q, want B", m.cursor.node)
	}
	m.moveCursor(explorer.DirRight)
	if m.cursor.node != "C" {
		t.Errorf("right from B = %q, want C", m.cursor.node)
	}

	m.cursor = cursorRef{node: "A"}
	m.moveCursor(explorer.DirDown)
	if m.cursor.node != "D" {
		t.Errorf("down from A = %q, want D", m.cursor.node)
	}

	// Placeholders are navigable targets too.
	m.cursor = cursorRef{node: "A"}
	m.moveCursor(explorer.DirUp)
	if m.cursor.group != "g1" {
		t.Errorf("up from A = %+v, want placeholder g1", m.cursor)
	}

	// No candidate to the left: cursor stays put.
	m.cursor = cursorRef{node: "A"}
	m.moveCursor(explorer.DirLeft)
	if m.cursor.node != "A" {
		t.Errorf("left from A moved cursor to %+v", m.cursor)
	}
}

func TestConeContains(t *testing.T) {
	tests := []struct {
		dir    explorer.Direction
		dx, dy float64
		want   bool
	}{
		{explorer.DirRight, 10, 0, true},
		{explorer.DirRight, 10, 5, true},
		{explorer.DirRight, 10, 20, false}, // dominated by vertical offset
		{explorer.DirRight, -10, 0, false},
		{explorer.DirUp, 0, -10, true},
		{explorer.DirUp, 5, -10, true},
		{explorer.DirUp, 20, -10, false},
		{explorer.DirDown, 0, 10, true},
		{explorer.DirLeft, -10, 3, true},
	}
	for _, tt := range tests {
		if got := coneContains(tt.dir, tt.dx, tt.dy); got != tt.want {
			t.Errorf("coneContains(%s, %v, %v) = %v, want %v", tt.dir, tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestCanvasClipsOutOfRange(t *testing.T) {
	cv := newCanvas(10, 4)
	cv.set(-1, 0, 'x', paintNode)
	cv.set(10, 0, 'x', paintNode)
	cv.set(0, 4, 'x', paintNode)
	cv.text(8, 1, "overflow", 20, paintNode)
	cv.box(-5, -5, 15, 15, paintGroup, false)

	out := cv.render()
	if lines := strings.Count(out, "\n"); lines != 4 {
		t.Errorf("rendered %d lines, want 4", lines)
	}
}

func TestCanvasTextTruncation(t *testing.T) {
	cv := newCanvas(20, 1)
	cv.text(0, 0, "abcdefghij", 5, paintNone)
	out := strings.TrimRight(cv.render(), " \n")
	if out != "abcd…" {
		t.Errorf("truncated text = %q, want %q", out, "abcd…")
	}
}

func TestCanvasLineAvoidsDrawnCells(t *testing.T) {
	cv := newCanvas(10, 1)
	cv.set(5, 0, 'N', paintNode)
	cv.line(0, 0, 9, 0, paintEdge)
	if cv.cells[5] != 'N' {
		t.Errorf("edge overwrote node cell: %q", cv.cells[5])
	}
	if cv.cells[4] != '·' || cv.cells[6] != '·' {
		t.Error("edge dots missing around node cell")
	}
}

func TestLoadLocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	content := `{"analytics/users": {"view_id": "analytics", "token": "analytics/users"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := loadLocations(path)
	if err != nil {
		t.Fatalf("loadLocations: %v", err)
	}
	loc, ok := table["analytics/users"]
	if !ok || loc.ViewID != "analytics" {
		t.Errorf("table = %+v", table)
	}

	if _, err := loadLocations(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadLocations(bad); err == nil {
		t.Error("malformed JSON accepted")
	}
}
