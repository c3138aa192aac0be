package explorer

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/layout"
	"github.com/graphport/graphport/pkg/locate"
	"github.com/graphport/graphport/pkg/observability"
)

// Direction is a keyboard navigation direction.
type Direction int

// Navigation directions.
const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "unknown"
}

// Selection owns the ordered token sequence for one view. Insertion order
// is significant: range selection scans existing tokens most-recent-first.
//
// All mutating methods run synchronously and emit a selection-changed
// notification through the explorer hooks. Selecting a token outside the
// current snapshot triggers an asynchronous location lookup instead of a
// local mutation; a stale lookup result (superseded by a newer one) is
// discarded.
type Selection struct {
	viewID   string
	snap     *assetgraph.Snapshot
	resolver locate.Resolver
	logger   *log.Logger
	tokens   []assetgraph.NodeID

	// lookupSeq orders off-snapshot lookups so only the newest applies.
	// lookupMu serializes the staleness check with the hook delivery, so
	// a stale lookup can never surface after a newer one already did.
	lookupSeq atomic.Uint64
	lookupMu  sync.Mutex
}

// NewSelection creates an empty selection for a view. The resolver may be
// nil, in which case off-snapshot clicks are plain no-ops.
func NewSelection(viewID string, snap *assetgraph.Snapshot, resolver locate.Resolver, logger *log.Logger) *Selection {
	if logger == nil {
		logger = log.Default()
	}
	return &Selection{viewID: viewID, snap: snap, resolver: resolver, logger: logger}
}

// Tokens returns the current token sequence in insertion order.
func (s *Selection) Tokens() []assetgraph.NodeID {
	return slices.Clone(s.tokens)
}

// Contains reports whether token is currently selected.
func (s *Selection) Contains(token assetgraph.NodeID) bool {
	return slices.Contains(s.tokens, token)
}

// Last returns the most recently added token, or "" when empty.
func (s *Selection) Last() assetgraph.NodeID {
	if len(s.tokens) == 0 {
		return ""
	}
	return s.tokens[len(s.tokens)-1]
}

// Len returns the number of selected tokens.
func (s *Selection) Len() int { return len(s.tokens) }

// SetSnapshot points the selection at a new snapshot. The token sequence is
// kept: selection persists across data refreshes.
func (s *Selection) SetSnapshot(snap *assetgraph.Snapshot) { s.snap = snap }

// Select replaces the selection with the clicked token. A token outside the
// current snapshot does not mutate the selection; it starts an asynchronous
// location lookup whose result, if any, is surfaced through the
// OnLocationFound hook. Lookup failure is a silent no-op.
func (s *Selection) Select(ctx context.Context, token assetgraph.NodeID) {
	if !s.snap.Has(token) {
		s.resolveRemote(ctx, token)
		return
	}
	s.tokens = []assetgraph.NodeID{token}
	s.notify(ctx, observability.IntentReplace)
}

// Toggle removes the token if selected, appends it otherwise. The order of
// the remaining tokens is preserved. Appending a token outside the current
// snapshot routes to the location lookup like Select.
func (s *Selection) Toggle(ctx context.Context, token assetgraph.NodeID) {
	if i := slices.Index(s.tokens, token); i >= 0 {
		s.tokens = slices.Delete(s.tokens, i, i+1)
		s.notify(ctx, observability.IntentIncremental)
		return
	}
	if !s.snap.Has(token) {
		s.resolveRemote(ctx, token)
		return
	}
	s.tokens = append(s.tokens, token)
	s.notify(ctx, observability.IntentIncremental)
}

// RangeSelect extends the selection along a connecting path to token.
// Existing selected tokens are scanned most-recent-first; the first one
// with a connecting chain to token wins and the chain tokens are unioned
// into the selection (existing tokens first, then new chain tokens in chain
// order). When no selected token connects, the clicked token is appended
// alone; a token outside the current snapshot routes to the location lookup
// instead. With an empty selection this is a plain Select.
//
// The most-recent-first scan is a deliberate tie-break: when several
// selected tokens reach the target, the one the user touched last defines
// the path.
func (s *Selection) RangeSelect(ctx context.Context, token assetgraph.NodeID) {
	if len(s.tokens) == 0 {
		s.Select(ctx, token)
		return
	}

	var chain []assetgraph.NodeID
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if chain = s.snap.ConnectedChain(s.tokens[i], token); chain != nil {
			break
		}
	}
	if chain == nil {
		if !s.snap.Has(token) {
			s.resolveRemote(ctx, token)
			return
		}
		chain = []assetgraph.NodeID{token}
	}
	for _, t := range chain {
		if !slices.Contains(s.tokens, t) {
			s.tokens = append(s.tokens, t)
		}
	}
	s.notify(ctx, observability.IntentIncremental)
}

// ToggleGroup selects or deselects all member tokens of a group. When every
// member is already selected the members are removed; otherwise the missing
// members are added. Tokens outside the group are never touched. Unknown
// groups are no-ops.
func (s *Selection) ToggleGroup(ctx context.Context, id assetgraph.GroupID) {
	members := s.snap.MembersOf(id)
	if len(members) == 0 {
		return
	}

	all := true
	for _, m := range members {
		if !slices.Contains(s.tokens, m) {
			all = false
			break
		}
	}

	if all {
		s.tokens = slices.DeleteFunc(s.tokens, func(t assetgraph.NodeID) bool {
			return slices.Contains(members, t)
		})
	} else {
		for _, m := range members {
			if !slices.Contains(s.tokens, m) {
				s.tokens = append(s.tokens, m)
			}
		}
	}
	s.notify(ctx, observability.IntentIncremental)
}

// Clear empties the selection (background click).
func (s *Selection) Clear(ctx context.Context) {
	if len(s.tokens) == 0 {
		return
	}
	s.tokens = nil
	s.notify(ctx, observability.IntentReplace)
}

// Navigate replaces the selection with the nearest node in the given
// direction from the last-selected node. Only nodes that have a definition
// and current bounds participate; placeholder nodes and nodes not yet laid
// out are skipped. When no candidate lies in that direction the selection
// is unchanged.
func (s *Selection) Navigate(ctx context.Context, dir Direction, bounds map[assetgraph.NodeID]layout.Rect) {
	last := s.Last()
	if last == "" {
		return
	}
	origin, ok := bounds[last]
	if !ok {
		return
	}
	oc := origin.Center()

	var best assetgraph.NodeID
	bestDist := math.Inf(1)
	for _, id := range s.snap.NodeIDs() {
		if id == last {
			continue
		}
		n := s.snap.Node(id)
		if n.IsPlaceholder() {
			continue
		}
		b, ok := bounds[id]
		if !ok {
			continue
		}
		c := b.Center()
		dx, dy := c.X-oc.X, c.Y-oc.Y
		if !inDirection(dir, dx, dy) {
			continue
		}
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			best = id
		}
	}
	if best == "" {
		return
	}
	s.tokens = []assetgraph.NodeID{best}
	s.notify(ctx, observability.IntentReplace)
}

// inDirection reports whether the delta lies in the 90 degree cone of dir:
// the magnitude along the primary axis must dominate the orthogonal one.
func inDirection(dir Direction, dx, dy float64) bool {
	switch dir {
	case DirUp:
		return dy < 0 && -dy >= math.Abs(dx)
	case DirDown:
		return dy > 0 && dy >= math.Abs(dx)
	case DirLeft:
		return dx < 0 && -dx >= math.Abs(dy)
	case DirRight:
		return dx > 0 && dx >= math.Abs(dy)
	}
	return false
}

// resolveRemote starts an asynchronous location lookup for an off-snapshot
// token. Only the newest pending lookup may apply: results arriving after a
// newer lookup started are discarded. A miss or failure leaves the
// selection unchanged.
func (s *Selection) resolveRemote(ctx context.Context, token assetgraph.NodeID) {
	if s.resolver == nil {
		return
	}
	seq := s.lookupSeq.Add(1)
	go func() {
		loc, found, err := s.resolver.Resolve(ctx, string(token))
		if err != nil {
			s.logger.Debug("location lookup failed", "token", token, "err", err)
			return
		}
		if !found {
			return
		}
		s.lookupMu.Lock()
		defer s.lookupMu.Unlock()
		if s.lookupSeq.Load() != seq {
			s.logger.Debug("discarding stale location lookup", "token", token)
			return
		}
		observability.Explorer().OnLocationFound(ctx, string(token), loc.ViewID)
	}()
}

// notify emits the selection-changed notification.
func (s *Selection) notify(ctx context.Context, intent string) {
	tokens := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		tokens[i] = string(t)
	}
	observability.Explorer().OnSelectionChanged(ctx, s.viewID, tokens, intent)
}
