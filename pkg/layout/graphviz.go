package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/errors"
)

// Graphviz layout constants.
const (
	// ptsPerInch converts Graphviz plain-format inches to screen points.
	ptsPerInch = 72.0

	// groupPad is the padding around an expanded group's member union, in
	// screen points.
	groupPad = 12.0
)

// GraphvizEngine computes bounds by running the dot engine through
// goccy/go-graphviz and parsing its plain output format.
//
// Expanded groups become clusters so members stay adjacent; collapsed
// groups become single synthetic nodes sized by Graphviz itself. Cluster
// boxes are not emitted in plain output, so expanded-group bounds are the
// padded union of member bounds.
type GraphvizEngine struct{}

// NewGraphvizEngine creates the dot-based layout engine.
func NewGraphvizEngine() *GraphvizEngine {
	return &GraphvizEngine{}
}

// Name returns the engine identifier used in cache keys.
func (e *GraphvizEngine) Name() string { return "dot" }

// Layout computes bounds for the snapshot with the given groups expanded.
func (e *GraphvizEngine) Layout(ctx context.Context, snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) (*Result, error) {
	dot := buildDOT(snap, expanded)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format("plain"), &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "run dot")
	}

	res, err := parsePlain(buf.Bytes())
	if err != nil {
		return nil, err
	}

	// Expanded-group bounds are derived, not emitted: pad the union of
	// whatever members actually got placed.
	isExpanded := make(map[assetgraph.GroupID]bool, len(expanded))
	for _, id := range expanded {
		isExpanded[id] = true
	}
	for _, gid := range snap.GroupIDs() {
		if !isExpanded[gid] {
			continue
		}
		var union Rect
		first := true
		for _, member := range snap.MembersOf(gid) {
			b, ok := res.NodeBounds[member]
			if !ok {
				continue
			}
			if first {
				union, first = b, false
			} else {
				union = union.Union(b)
			}
		}
		if !first {
			res.GroupBounds[gid] = union.Pad(groupPad)
		}
	}
	return res, nil
}

// DOT name prefixes. Plain output echoes node names back, so the prefix
// lets the parser tell synthetic collapsed-group nodes from real ones.
const (
	dotNodePrefix  = "n:"
	dotGroupPrefix = "g:"
)

// buildDOT renders the snapshot as a dot-language digraph. Members of
// expanded groups sit inside clusters; collapsed groups shrink to one
// synthetic node; edges touching collapsed members reattach to it, with
// duplicates and resulting self-loops dropped.
func buildDOT(snap *assetgraph.Snapshot, expanded []assetgraph.GroupID) string {
	isExpanded := make(map[assetgraph.GroupID]bool, len(expanded))
	for _, id := range expanded {
		isExpanded[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	// Groupless nodes at top level.
	for _, id := range snap.NodeIDs() {
		if n := snap.Node(id); n.GroupID == "" {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", dotNodePrefix+string(id), nodeLabel(n))
		}
	}

	for i, gid := range snap.GroupIDs() {
		g := snap.Group(gid)
		if !isExpanded[gid] {
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n",
				dotGroupPrefix+string(gid), g.Name)
			continue
		}
		fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", g.Name)
		for _, id := range snap.MembersOf(gid) {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", dotNodePrefix+string(id), nodeLabel(snap.Node(id)))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	seen := make(map[[2]string]bool)
	for _, e := range snap.Edges() {
		from := dotEndpoint(snap, isExpanded, e.From)
		to := dotEndpoint(snap, isExpanded, e.To)
		if from == to || seen[[2]string{from, to}] {
			continue
		}
		seen[[2]string{from, to}] = true
		fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotEndpoint(snap *assetgraph.Snapshot, isExpanded map[assetgraph.GroupID]bool, id assetgraph.NodeID) string {
	n := snap.Node(id)
	if n.GroupID != "" && !isExpanded[n.GroupID] {
		return dotGroupPrefix + string(n.GroupID)
	}
	return dotNodePrefix + string(id)
}

func nodeLabel(n *assetgraph.Node) string {
	if n.Definition != nil && len(n.Definition.Path) > 0 {
		return n.Definition.Path[len(n.Definition.Path)-1]
	}
	return string(n.ID)
}

// parsePlain decodes Graphviz plain output into a Result. The plain format
// uses a bottom-left origin and inches; coordinates are flipped to a
// top-left origin and scaled to points. Node coordinates are centers, so
// bounds subtract half the extent.
func parsePlain(out []byte) (*Result, error) {
	res := &Result{
		NodeBounds:  make(map[assetgraph.NodeID]Rect),
		GroupBounds: make(map[assetgraph.GroupID]Rect),
		EdgeRoutes:  make(map[EdgeKey][]Point),
	}

	var graphHeight float64
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		fields := splitPlainFields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			// graph scale width height
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeLayoutFailed, "malformed graph line in plain output")
			}
			graphHeight, _ = strconv.ParseFloat(fields[3], 64)

		case "node":
			// node name x y width height label style shape color fillcolor
			if len(fields) < 6 {
				return nil, errors.New(errors.ErrCodeLayoutFailed, "malformed node line in plain output")
			}
			x, _ := strconv.ParseFloat(fields[2], 64)
			y, _ := strconv.ParseFloat(fields[3], 64)
			w, _ := strconv.ParseFloat(fields[4], 64)
			h, _ := strconv.ParseFloat(fields[5], 64)
			r := Rect{
				X:      (x - w/2) * ptsPerInch,
				Y:      (graphHeight - y - h/2) * ptsPerInch,
				Width:  w * ptsPerInch,
				Height: h * ptsPerInch,
			}
			name := fields[1]
			switch {
			case strings.HasPrefix(name, dotNodePrefix):
				res.NodeBounds[assetgraph.NodeID(name[len(dotNodePrefix):])] = r
			case strings.HasPrefix(name, dotGroupPrefix):
				res.GroupBounds[assetgraph.GroupID(name[len(dotGroupPrefix):])] = r
			}

		case "edge":
			// edge tail head n x1 y1 .. xn yn [label x y] style color
			if len(fields) < 4 {
				return nil, errors.New(errors.ErrCodeLayoutFailed, "malformed edge line in plain output")
			}
			tail, head := fields[1], fields[2]
			if !strings.HasPrefix(tail, dotNodePrefix) || !strings.HasPrefix(head, dotNodePrefix) {
				// Routes to synthetic group nodes are recomputed per pass
				// from placeholder centers.
				continue
			}
			n, _ := strconv.Atoi(fields[3])
			if n <= 0 || len(fields) < 4+2*n {
				continue
			}
			route := make([]Point, 0, n)
			for i := 0; i < n; i++ {
				px, _ := strconv.ParseFloat(fields[4+2*i], 64)
				py, _ := strconv.ParseFloat(fields[5+2*i], 64)
				route = append(route, Point{
					X: px * ptsPerInch,
					Y: (graphHeight - py) * ptsPerInch,
				})
			}
			key := EdgeKey{
				From: assetgraph.NodeID(tail[len(dotNodePrefix):]),
				To:   assetgraph.NodeID(head[len(dotNodePrefix):]),
			}
			res.EdgeRoutes[key] = route

		case "stop":
			return res, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "read plain output")
	}
	return res, nil
}

// splitPlainFields splits one plain-output line on whitespace, honoring
// double-quoted fields (names and labels may contain spaces).
func splitPlainFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuote {
				fields = append(fields, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case (c == ' ' || c == '\t') && !inQuote:
			flush()
		case c == '\\' && inQuote && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return fields
}

// Ensure GraphvizEngine implements Provider.
var _ Provider = (*GraphvizEngine)(nil)
