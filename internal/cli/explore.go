package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/cache"
	"github.com/graphport/graphport/pkg/config"
	"github.com/graphport/graphport/pkg/errors"
	"github.com/graphport/graphport/pkg/explorer"
	"github.com/graphport/graphport/pkg/layout"
	"github.com/graphport/graphport/pkg/locate"
	"github.com/graphport/graphport/pkg/observability"
	"github.com/graphport/graphport/pkg/viewport"
)

// exploreCommand creates the explore command for the interactive TUI.
func (c *CLI) exploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [snapshot.json|view-id]",
		Short: "Explore a dependency graph interactively",
		Long: `Explore a dependency graph interactively.

The argument is either a snapshot JSON file or a view ID resolved through
the configured source backend. Groups start collapsed (or restored from the
persisted view state); layout runs asynchronously, so expanding a large
group never blocks the view.

Keys:

  ↑/↓/←/→   move the cursor to the nearest node in that direction
  enter     select the node under the cursor (expands a collapsed group)
  t         toggle-select the node under the cursor
  r         range-select: extend along a connecting path to the cursor
  g         select or deselect all members of the cursor's group
  x         expand or collapse the cursor's group
  E / C     expand / collapse all groups
  esc       clear the selection
  + / -     zoom in / out
  h/j/k/l   pan left / down / up / right
  e         toggle secondary (cross-view) edges
  d         toggle dimming of unselected nodes
  f         request a view filtered to the cursor's group
  q         quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0])
		},
	}
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, target string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	snap, viewID, resolver, release, err := c.openTarget(ctx, cfg, target)
	if err != nil {
		return err
	}
	defer release()

	store, err := newStateStore(ctx, cfg.ViewState)
	if err != nil {
		c.Logger.Warn("state store unavailable, view state will not persist", "err", err)
		store = nil
	} else {
		defer store.Close()
	}

	artifacts := newArtifactCache(cfg.Cache, false)
	defer artifacts.Close()

	session := explorer.NewSession(ctx, viewID, snap, store, resolver, c.Logger)
	m := newExploreModel(ctx, session, artifacts, cfg.Layout, c.Logger)
	defer m.coord.Close()

	hooks := &uiHooks{events: m.events}
	observability.SetExplorerHooks(hooks)
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("explorer: %w", err)
	}
	return nil
}

// openTarget resolves the explore argument to a snapshot. A path that
// exists on disk (or ends in .json) is read directly; anything else is a
// view ID for the configured source backend.
func (c *CLI) openTarget(ctx context.Context, cfg config.Config, target string) (*assetgraph.Snapshot, string, locate.Resolver, func(), error) {
	if _, err := os.Stat(target); err == nil || strings.HasSuffix(target, ".json") {
		snap, err := assetgraph.ReadFile(target)
		if err != nil {
			return nil, "", nil, nil, fmt.Errorf("load snapshot %s: %w", target, err)
		}
		viewID := strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
		return snap, viewID, nil, func() {}, nil
	}

	if err := errors.ValidateViewID(target); err != nil {
		return nil, "", nil, nil, err
	}
	src, release, err := newSourceProvider(ctx, cfg.Source)
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("initialize source: %w", err)
	}
	snap, err := src.Snapshot(ctx, target)
	if err != nil {
		release()
		return nil, "", nil, nil, err
	}

	// Off-snapshot selections can only resolve against a remote API.
	var resolver locate.Resolver
	if cfg.Source.Backend == "http" {
		resolver = locate.NewHTTP(cfg.Source.BaseURL, nil)
	}
	return snap, target, resolver, release, nil
}

// =============================================================================
// Messages & Hooks
// =============================================================================

// layoutMsg delivers a completed layout pass to the update loop.
type layoutMsg struct {
	res *layout.Result
}

// uiEventMsg is a status-line notification from the observability hooks.
type uiEventMsg struct {
	text string

	// layoutDone marks events that end an in-flight layout pass.
	layoutDone bool
}

// uiHooks forwards engine notifications into the bubbletea loop via the
// model's event channel. Sends never block: a full channel drops the event,
// since a status line is the only consumer.
type uiHooks struct {
	observability.NoopExplorerHooks
	observability.NoopLayoutHooks
	events chan uiEventMsg
}

func (h *uiHooks) OnLocationFound(ctx context.Context, token, viewID string) {
	h.post(fmt.Sprintf("%s is defined in view %s", token, viewID))
}

func (h *uiHooks) OnGroupFilterRequested(ctx context.Context, viewID, groupID string) {
	h.post(fmt.Sprintf("filter requested: %s", groupID))
}

func (h *uiHooks) OnLayoutFailed(ctx context.Context, seq uint64, err error) {
	select {
	case h.events <- uiEventMsg{text: fmt.Sprintf("layout failed: %s", errors.UserMessage(err)), layoutDone: true}:
	default:
	}
}

func (h *uiHooks) post(text string) {
	select {
	case h.events <- uiEventMsg{text: text}:
	default:
	}
}

// =============================================================================
// Model
// =============================================================================

// Cell geometry: world units covered by one terminal cell at scale 1.
// Nodes are 72x36 world units, so a node spans roughly 8x2 cells.
const (
	cellWorldW = 9.0
	cellWorldH = 18.0
)

// Zoom limits.
const (
	minScale = 0.05
	maxScale = 4.0
)

// cursorRef identifies the entity under the cursor: a node, or a
// collapsed-group placeholder.
type cursorRef struct {
	node  assetgraph.NodeID
	group assetgraph.GroupID
}

func (r cursorRef) zero() bool { return r.node == "" && r.group == "" }

// exploreModel is the bubbletea model for the interactive explorer. All
// engine state mutates synchronously inside Update; layout results arrive
// as messages, never as direct mutation from the coordinator goroutine.
type exploreModel struct {
	ctx     context.Context
	session *explorer.Session
	sched   *viewport.Scheduler
	coord   *layout.Coordinator
	logger  *log.Logger

	results chan *layout.Result
	events  chan uiEventMsg

	bounds *layout.Result
	plan   *viewport.Plan

	cursor cursorRef
	camX   float64
	camY   float64
	scale  float64
	fitted bool

	width  int
	height int
	laying bool
	status string
}

// newExploreModel wires the scheduler and coordinator for one session and
// requests the initial layout.
func newExploreModel(ctx context.Context, session *explorer.Session, store cache.Cache, layoutCfg config.Layout, logger *log.Logger) *exploreModel {
	m := &exploreModel{
		ctx:     ctx,
		session: session,
		sched:   newScheduler(layoutCfg),
		logger:  logger,
		results: make(chan *layout.Result, 8),
		events:  make(chan uiEventMsg, 8),
		scale:   1,
	}
	m.coord = layout.NewCoordinator(layout.NewGraphvizEngine(), store, func(res *layout.Result) {
		// Never block the coordinator worker: if the UI is gone or hopelessly
		// behind, the next request re-delivers fresher bounds anyway.
		select {
		case m.results <- res:
		default:
		}
	}, logger)
	m.relayout()
	return m
}

// newScheduler applies configured level-of-detail overrides.
func newScheduler(cfg config.Layout) *viewport.Scheduler {
	s := viewport.NewScheduler()
	if cfg.GroupsOnlyScale > 0 {
		s.GroupsOnlyScale = cfg.GroupsOnlyScale
	}
	if cfg.MinimalScale > 0 {
		s.MinimalScale = cfg.MinimalScale
	}
	return s
}

func (m *exploreModel) Init() tea.Cmd {
	return tea.Batch(m.waitLayout(), m.waitEvent())
}

// waitLayout re-arms the layout result listener.
func (m *exploreModel) waitLayout() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.results
		if !ok {
			return nil
		}
		return layoutMsg{res: res}
	}
}

// waitEvent re-arms the hook event listener.
func (m *exploreModel) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return ev
	}
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 2 // status and help lines
		if m.height < 4 {
			m.height = 4
		}
		m.rebuild()

	case layoutMsg:
		m.bounds = msg.res
		m.laying = false
		if !m.fitted {
			m.fitToContent()
			m.fitted = true
		}
		if gid, ok := m.session.Groups.TakeFocusGroup(); ok {
			if b, ok := m.bounds.GroupBounds[gid]; ok {
				m.centerOn(b)
			}
		}
		m.rebuild()
		if m.cursor.zero() {
			m.resetCursor()
		}
		return m, m.waitLayout()

	case uiEventMsg:
		m.status = msg.text
		if msg.layoutDone {
			m.laying = false
		}
		return m, m.waitEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.session.Selection
	groups := m.session.Groups

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up":
		m.moveCursor(explorer.DirUp)
	case "down":
		m.moveCursor(explorer.DirDown)
	case "left":
		m.moveCursor(explorer.DirLeft)
	case "right":
		m.moveCursor(explorer.DirRight)

	case "enter":
		if m.cursor.group != "" {
			groups.Expand(m.ctx, m.cursor.group)
			m.relayout()
		} else if m.cursor.node != "" {
			sel.Select(m.ctx, m.cursor.node)
		}
	case "t":
		if m.cursor.node != "" {
			sel.Toggle(m.ctx, m.cursor.node)
		}
	case "r":
		if m.cursor.node != "" {
			sel.RangeSelect(m.ctx, m.cursor.node)
		}
	case "g":
		if gid := m.cursorGroup(); gid != "" {
			sel.ToggleGroup(m.ctx, gid)
		}
	case "x":
		if gid := m.cursorGroup(); gid != "" {
			groups.Toggle(m.ctx, gid)
			if !groups.IsExpanded(gid) {
				// Collapsed under the cursor: move the cursor onto the
				// placeholder that replaces the members.
				m.cursor = cursorRef{group: gid}
			}
			m.relayout()
		}
	case "E":
		groups.ExpandAll(m.ctx)
		m.relayout()
	case "C":
		groups.CollapseAll(m.ctx)
		m.relayout()
	case "esc":
		sel.Clear(m.ctx)

	case "+", "=":
		m.zoom(1.25)
	case "-", "_":
		m.zoom(0.8)
	case "h":
		m.pan(-0.25, 0)
	case "l":
		m.pan(0.25, 0)
	case "k":
		m.pan(0, -0.25)
	case "j":
		m.pan(0, 0.25)

	case "e":
		opts := groups.Options()
		opts.ShowSecondaryEdges = !opts.ShowSecondaryEdges
		groups.SetOptions(m.ctx, opts)
	case "d":
		opts := groups.Options()
		opts.DimUnselected = !opts.DimUnselected
		groups.SetOptions(m.ctx, opts)

	case "f":
		if gid := m.cursorGroup(); gid != "" {
			m.session.RequestGroupFilter(m.ctx, gid)
		}

	default:
		return m, nil
	}

	m.rebuild()
	return m, nil
}

// cursorGroup resolves the group the cursor refers to: the placeholder's
// group, or the group the cursor node belongs to.
func (m *exploreModel) cursorGroup() assetgraph.GroupID {
	if m.cursor.group != "" {
		return m.cursor.group
	}
	if n := m.session.Snapshot().Node(m.cursor.node); n != nil {
		return n.GroupID
	}
	return ""
}

// relayout schedules an asynchronous layout pass for the current
// expanded-group set. Superseded passes are discarded by the coordinator.
func (m *exploreModel) relayout() {
	m.laying = true
	m.coord.Request(m.ctx, m.session.Snapshot(), m.session.Groups.ExpandedIDs())
}

// rebuild recomputes the render plan from current state.
func (m *exploreModel) rebuild() {
	if m.width == 0 {
		return
	}
	m.plan = m.sched.BuildPlan(viewport.Pass{
		Snapshot:  m.session.Snapshot(),
		Bounds:    m.bounds,
		Groups:    m.session.Groups,
		Selection: m.session.Selection,
		Options:   m.session.Groups.Options(),
		View:      m.view(),
	})
}

// view derives the camera state from position, zoom, and terminal size.
func (m *exploreModel) view() viewport.View {
	return viewport.View{
		Scale: m.scale,
		Visible: layout.Rect{
			X:      m.camX,
			Y:      m.camY,
			Width:  float64(m.width) * cellWorldW / m.scale,
			Height: float64(m.height) * cellWorldH / m.scale,
		},
	}
}

// =============================================================================
// Camera
// =============================================================================

func (m *exploreModel) zoom(factor float64) {
	v := m.view().Visible
	cx, cy := v.X+v.Width/2, v.Y+v.Height/2
	m.scale = math.Min(maxScale, math.Max(minScale, m.scale*factor))
	nv := m.view().Visible
	m.camX = cx - nv.Width/2
	m.camY = cy - nv.Height/2
}

func (m *exploreModel) pan(fx, fy float64) {
	v := m.view().Visible
	m.camX += v.Width * fx
	m.camY += v.Height * fy
}

func (m *exploreModel) centerOn(b layout.Rect) {
	v := m.view().Visible
	c := b.Center()
	m.camX = c.X - v.Width/2
	m.camY = c.Y - v.Height/2
}

// fitToContent positions and scales the camera so the whole layout is
// visible. Runs once, when the first bounds arrive.
func (m *exploreModel) fitToContent() {
	if m.bounds == nil || m.width == 0 {
		return
	}
	var bbox layout.Rect
	first := true
	for _, b := range m.bounds.NodeBounds {
		if first {
			bbox, first = b, false
		} else {
			bbox = bbox.Union(b)
		}
	}
	for _, b := range m.bounds.GroupBounds {
		if first {
			bbox, first = b, false
		} else {
			bbox = bbox.Union(b)
		}
	}
	if first || bbox.Width == 0 || bbox.Height == 0 {
		return
	}

	sx := float64(m.width) * cellWorldW / bbox.Width
	sy := float64(m.height) * cellWorldH / bbox.Height
	m.scale = math.Min(maxScale, math.Max(minScale, math.Min(sx, sy)*0.9))
	m.centerOn(bbox)
}

// ensureCursorVisible pans the camera when the cursor leaves the view.
func (m *exploreModel) ensureCursorVisible() {
	b, ok := m.cursorBounds()
	if !ok {
		return
	}
	if !b.Intersects(m.view().Visible) {
		m.centerOn(b)
	}
}

// =============================================================================
// Cursor
// =============================================================================

// cursorTargets returns the navigable ops of the current plan: nodes and
// collapsed-group placeholders.
func (m *exploreModel) cursorTargets() []viewport.Op {
	if m.plan == nil {
		return nil
	}
	var ops []viewport.Op
	for _, op := range m.plan.Ops {
		if op.Kind == viewport.OpNode || op.Kind == viewport.OpGroupPlaceholder {
			ops = append(ops, op)
		}
	}
	return ops
}

func (m *exploreModel) cursorBounds() (layout.Rect, bool) {
	for _, op := range m.cursorTargets() {
		if m.opAtCursor(op) {
			return op.Bounds, true
		}
	}
	return layout.Rect{}, false
}

func (m *exploreModel) opAtCursor(op viewport.Op) bool {
	if op.Kind == viewport.OpNode {
		return m.cursor.node != "" && op.NodeID == m.cursor.node
	}
	return m.cursor.group != "" && op.GroupID == m.cursor.group
}

// resetCursor puts the cursor on the first navigable op.
func (m *exploreModel) resetCursor() {
	targets := m.cursorTargets()
	if len(targets) == 0 {
		m.cursor = cursorRef{}
		return
	}
	m.setCursorTo(targets[0])
}

func (m *exploreModel) setCursorTo(op viewport.Op) {
	if op.Kind == viewport.OpNode {
		m.cursor = cursorRef{node: op.NodeID}
	} else {
		m.cursor = cursorRef{group: op.GroupID}
	}
}

// moveCursor picks the nearest target in the 90 degree cone of dir from
// the current cursor, measured center to center. No candidate leaves the
// cursor in place.
func (m *exploreModel) moveCursor(dir explorer.Direction) {
	origin, ok := m.cursorBounds()
	if !ok {
		m.resetCursor()
		return
	}
	oc := origin.Center()

	var best *viewport.Op
	bestDist := math.Inf(1)
	targets := m.cursorTargets()
	for i := range targets {
		op := &targets[i]
		if m.opAtCursor(*op) {
			continue
		}
		c := op.Bounds.Center()
		dx, dy := c.X-oc.X, c.Y-oc.Y
		if !coneContains(dir, dx, dy) {
			continue
		}
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			best = op
		}
	}
	if best == nil {
		return
	}
	m.setCursorTo(*best)
	m.ensureCursorVisible()
}

// coneContains reports whether the delta lies in the 90 degree cone of
// dir: the primary-axis magnitude must dominate the orthogonal one.
func coneContains(dir explorer.Direction, dx, dy float64) bool {
	switch dir {
	case explorer.DirUp:
		return dy < 0 && -dy >= math.Abs(dx)
	case explorer.DirDown:
		return dy > 0 && dy >= math.Abs(dx)
	case explorer.DirLeft:
		return dx < 0 && -dx >= math.Abs(dy)
	case explorer.DirRight:
		return dx > 0 && dx >= math.Abs(dy)
	}
	return false
}
