package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/graphport/graphport/pkg/layout"
	"github.com/graphport/graphport/pkg/viewport"
)

// =============================================================================
// Canvas - cell-based drawing surface
// =============================================================================

// paint selects the lipgloss style for a canvas cell.
type paint uint8

const (
	paintNone paint = iota
	paintDim
	paintGroup
	paintPlaceholder
	paintEdge
	paintNode
	paintSelected
	paintCursor
)

var paintStyles = [...]lipgloss.Style{
	paintNone:        lipgloss.NewStyle(),
	paintDim:         lipgloss.NewStyle().Foreground(colorDim),
	paintGroup:       lipgloss.NewStyle().Foreground(colorGray),
	paintPlaceholder: lipgloss.NewStyle().Foreground(colorYellow),
	paintEdge:        lipgloss.NewStyle().Foreground(colorDim),
	paintNode:        lipgloss.NewStyle().Foreground(colorWhite),
	paintSelected:    lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	paintCursor:      lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Reverse(true),
}

// canvas is a rune grid with a parallel paint grid. All draw operations
// clip to the canvas; out-of-range coordinates are silently dropped.
type canvas struct {
	w, h   int
	cells  []rune
	paints []paint
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]rune, w*h), paints: make([]paint, w*h)}
	for i := range c.cells {
		c.cells[i] = ' '
	}
	return c
}

func (c *canvas) set(x, y int, r rune, p paint) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = r
	c.paints[y*c.w+x] = p
}

// text writes s starting at (x, y), truncated at maxW runes.
func (c *canvas) text(x, y int, s string, maxW int, p paint) {
	if maxW <= 0 {
		return
	}
	runes := []rune(s)
	if len(runes) > maxW {
		if maxW > 1 {
			runes = append(runes[:maxW-1], '…')
		} else {
			runes = runes[:maxW]
		}
	}
	for i, r := range runes {
		c.set(x+i, y, r, p)
	}
}

// box draws a rectangle border. Dashed borders mark collapsed groups.
func (c *canvas) box(x0, y0, x1, y1 int, p paint, dashed bool) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	hr, vr := '─', '│'
	if dashed {
		hr, vr = '╌', '╎'
	}
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, hr, p)
		c.set(x, y1, hr, p)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, vr, p)
		c.set(x1, y, vr, p)
	}
	c.set(x0, y0, '┌', p)
	c.set(x1, y0, '┐', p)
	c.set(x0, y1, '└', p)
	c.set(x1, y1, '┘', p)
}

// line draws a Bresenham segment of dots between two cells.
func (c *canvas) line(x0, y0, x1, y1 int, p paint) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		// Never overwrite drawn geometry with edge dots.
		if x0 >= 0 && x0 < c.w && y0 >= 0 && y0 < c.h && c.cells[y0*c.w+x0] == ' ' {
			c.set(x0, y0, '·', p)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// render joins the grid into styled terminal lines, batching runs of
// equally painted cells to keep escape sequences sparse.
func (c *canvas) render() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := c.cells[y*c.w : (y+1)*c.w]
		ps := c.paints[y*c.w : (y+1)*c.w]
		start := 0
		for x := 1; x <= c.w; x++ {
			if x < c.w && ps[x] == ps[start] {
				continue
			}
			run := string(row[start:x])
			if ps[start] == paintNone {
				b.WriteString(run)
			} else {
				b.WriteString(paintStyles[ps[start]].Render(run))
			}
			start = x
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Model View
// =============================================================================

func (m *exploreModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	cv := newCanvas(m.width, m.height)
	if m.plan != nil {
		for _, op := range m.plan.Ops {
			m.drawOp(cv, op)
		}
	}

	return cv.render() + m.statusLine() + "\n" + m.helpLine()
}

// toCell projects a world coordinate into canvas cells.
func (m *exploreModel) toCell(x, y float64) (int, int) {
	return int((x - m.camX) * m.scale / cellWorldW),
		int((y - m.camY) * m.scale / cellWorldH)
}

func (m *exploreModel) cellRect(b layout.Rect) (x0, y0, x1, y1 int) {
	x0, y0 = m.toCell(b.X, b.Y)
	x1, y1 = m.toCell(b.X+b.Width, b.Y+b.Height)
	return
}

func (m *exploreModel) drawOp(cv *canvas, op viewport.Op) {
	switch op.Kind {
	case viewport.OpGroupBox:
		x0, y0, x1, y1 := m.cellRect(op.Bounds)
		cv.box(x0, y0, x1, y1, paintGroup, false)
		cv.text(x0+2, y0, " "+op.Sprite.Label+" ", x1-x0-3, paintGroup)

	case viewport.OpGroupPlaceholder:
		p := paintPlaceholder
		if m.opAtCursor(op) {
			p = paintCursor
		}
		x0, y0, x1, y1 := m.cellRect(op.Bounds)
		cv.box(x0, y0, x1, y1, p, true)
		label := "▸ " + op.Sprite.Label
		cv.text(x0+1, (y0+y1)/2, label, x1-x0-1, p)

	case viewport.OpEdge:
		for i := 1; i < len(op.Route); i++ {
			x0, y0 := m.toCell(op.Route[i-1].X, op.Route[i-1].Y)
			x1, y1 := m.toCell(op.Route[i].X, op.Route[i].Y)
			cv.line(x0, y0, x1, y1, paintEdge)
		}

	case viewport.OpNode:
		p := paintNode
		switch {
		case m.opAtCursor(op):
			p = paintCursor
		case op.Sprite.Selected:
			p = paintSelected
		case op.Sprite.Dimmed:
			p = paintDim
		}
		x0, y0, x1, y1 := m.cellRect(op.Bounds)
		cy := (y0 + y1) / 2
		if op.Sprite.Detail == viewport.DetailMinimal || x1-x0 < 4 {
			cv.text(x0, cy, op.Sprite.Label, max(x1-x0, 1), p)
			return
		}
		cv.set(x0, cy, '[', p)
		cv.set(x1, cy, ']', p)
		cv.text(x0+1, cy, op.Sprite.Label, x1-x0-1, p)
	}
}

func (m *exploreModel) statusLine() string {
	snap := m.session.Snapshot()
	parts := []string{
		StyleTitle.Render(m.session.ViewID()),
		StyleDim.Render(fmt.Sprintf("%d nodes", snap.NodeCount())),
		StyleDim.Render(fmt.Sprintf("%d selected", m.session.Selection.Len())),
		StyleDim.Render(fmt.Sprintf("zoom %.2f", m.scale)),
	}
	if m.laying {
		parts = append(parts, StyleHighlight.Render("laying out…"))
	}
	if m.status != "" {
		parts = append(parts, StyleWarning.Render(m.status))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func (m *exploreModel) helpLine() string {
	return StyleDim.Render("↑↓←→ move · ⏎ select · t toggle · r range · g group · x expand · E/C all · +/- zoom · hjkl pan · esc clear · q quit")
}
