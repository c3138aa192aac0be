package explorer

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/layout"
	"github.com/graphport/graphport/pkg/locate"
	"github.com/graphport/graphport/pkg/observability"
)

// chainSnap builds the linear graph A→B→C→D.
func chainSnap() *assetgraph.Snapshot {
	return assetgraph.Build(
		[]assetgraph.Node{
			{ID: "A", Definition: &assetgraph.Definition{Path: []string{"A"}}},
			{ID: "B", Definition: &assetgraph.Definition{Path: []string{"B"}}},
			{ID: "C", Definition: &assetgraph.Definition{Path: []string{"C"}}},
			{ID: "D", Definition: &assetgraph.Definition{Path: []string{"D"}}},
		},
		[]assetgraph.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "D"}},
	)
}

// recordingHooks captures explorer notifications for assertions.
type recordingHooks struct {
	observability.NoopExplorerHooks
	mu         sync.Mutex
	selections [][]string
	intents    []string
	locations  []string // "token->view"
}

func (h *recordingHooks) OnSelectionChanged(ctx context.Context, viewID string, tokens []string, intent string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selections = append(h.selections, slices.Clone(tokens))
	h.intents = append(h.intents, intent)
}

func (h *recordingHooks) OnLocationFound(ctx context.Context, token, view string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.locations = append(h.locations, token+"->"+view)
}

func (h *recordingHooks) lastIntent() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.intents) == 0 {
		return ""
	}
	return h.intents[len(h.intents)-1]
}

func (h *recordingHooks) locationCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.locations)
}

func installHooks(t *testing.T) *recordingHooks {
	t.Helper()
	h := &recordingHooks{}
	observability.SetExplorerHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

func wantTokens(t *testing.T, s *Selection, want ...assetgraph.NodeID) {
	t.Helper()
	if got := s.Tokens(); !slices.Equal(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
}

func TestSelectReplaces(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), nil, nil)

	s.Select(ctx, "A")
	s.Select(ctx, "B")
	wantTokens(t, s, "B")
	if h.lastIntent() != observability.IntentReplace {
		t.Errorf("intent = %q, want replace", h.lastIntent())
	}
}

func TestToggle(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), nil, nil)

	s.Select(ctx, "A")
	s.Toggle(ctx, "C")
	s.Toggle(ctx, "B")
	wantTokens(t, s, "A", "C", "B")
	if h.lastIntent() != observability.IntentIncremental {
		t.Errorf("intent = %q, want incremental", h.lastIntent())
	}

	// Removing preserves the order of the rest.
	s.Toggle(ctx, "C")
	wantTokens(t, s, "A", "B")
}

func TestToggleOffSnapshotResolvesInsteadOfMutating(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	resolver := locate.Static{
		"other/asset": {ViewID: "other-view", Token: "other/asset"},
	}
	s := NewSelection("view-1", chainSnap(), resolver, nil)

	s.Select(ctx, "A")
	s.Toggle(ctx, "other/asset")
	wantTokens(t, s, "A")

	waitFor(t, func() bool { return h.locationCount() == 1 })
}

func TestRangeSelectAlongChain(t *testing.T) {
	installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), nil, nil)

	s.Select(ctx, "A")
	s.RangeSelect(ctx, "D")
	wantTokens(t, s, "A", "B", "C", "D")
}

func TestRangeSelectScansMostRecentFirst(t *testing.T) {
	installHooks(t)
	// Two routes to T: A→B→T and C→T. With selection [A, C] the chain from
	// C (added last) wins, so B is never pulled in.
	snap := assetgraph.Build(
		[]assetgraph.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "T"}},
		[]assetgraph.Edge{{From: "A", To: "B"}, {From: "B", To: "T"}, {From: "C", To: "T"}},
	)
	ctx := context.Background()
	s := NewSelection("view-1", snap, nil, nil)

	s.Select(ctx, "A")
	s.Toggle(ctx, "C")
	s.RangeSelect(ctx, "T")
	wantTokens(t, s, "A", "C", "T")
}

func TestRangeSelectFallsBackToSingleToken(t *testing.T) {
	installHooks(t)
	snap := assetgraph.Build(
		[]assetgraph.Node{{ID: "A"}, {ID: "X"}},
		nil, // disconnected
	)
	ctx := context.Background()
	s := NewSelection("view-1", snap, nil, nil)

	s.Select(ctx, "A")
	s.RangeSelect(ctx, "X")
	wantTokens(t, s, "A", "X")
}

func TestRangeSelectOffSnapshotResolvesInsteadOfMutating(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	resolver := locate.Static{
		"other/asset": {ViewID: "other-view", Token: "other/asset"},
	}
	s := NewSelection("view-1", chainSnap(), resolver, nil)

	s.Select(ctx, "A")
	s.RangeSelect(ctx, "other/asset")
	wantTokens(t, s, "A")

	waitFor(t, func() bool { return h.locationCount() == 1 })
}

func TestRangeSelectOnEmptySelectionIsPlainSelect(t *testing.T) {
	installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), nil, nil)

	s.RangeSelect(ctx, "B")
	wantTokens(t, s, "B")
}

func TestToggleGroup(t *testing.T) {
	installHooks(t)
	ctx := context.Background()
	snap := twoGroupSnap() // g1={A,B}, g2={C}
	s := NewSelection("view-1", snap, nil, nil)

	// Outside token stays put through both toggles.
	s.Select(ctx, "C")

	s.ToggleGroup(ctx, g1)
	wantTokens(t, s, "C", "A", "B")

	// Partially selected → fill in the missing member only.
	s.Toggle(ctx, "B")
	wantTokens(t, s, "C", "A")
	s.ToggleGroup(ctx, g1)
	wantTokens(t, s, "C", "A", "B")

	// Fully selected → remove members, keep outside tokens.
	s.ToggleGroup(ctx, g1)
	wantTokens(t, s, "C")

	// Unknown group is a no-op.
	s.ToggleGroup(ctx, "loc:repo:ghost")
	wantTokens(t, s, "C")
}

func TestToggleGroupFromEmpty(t *testing.T) {
	installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", twoGroupSnap(), nil, nil)

	s.ToggleGroup(ctx, g1)
	wantTokens(t, s, "A", "B")
	s.ToggleGroup(ctx, g1)
	wantTokens(t, s)
}

func TestClear(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), nil, nil)

	s.Select(ctx, "A")
	s.Clear(ctx)
	wantTokens(t, s)
	if h.lastIntent() != observability.IntentReplace {
		t.Errorf("intent = %q, want replace", h.lastIntent())
	}
}

func TestNavigate(t *testing.T) {
	installHooks(t)
	ctx := context.Background()
	snap := assetgraph.Build([]assetgraph.Node{
		{ID: "center", Definition: &assetgraph.Definition{Path: []string{"center"}}},
		{ID: "east", Definition: &assetgraph.Definition{Path: []string{"east"}}},
		{ID: "far-east", Definition: &assetgraph.Definition{Path: []string{"far-east"}}},
		{ID: "north", Definition: &assetgraph.Definition{Path: []string{"north"}}},
		{ID: "ghost"}, // placeholder: never a navigation target
	}, nil)
	bounds := map[assetgraph.NodeID]layout.Rect{
		"center":   {X: 100, Y: 100, Width: 10, Height: 10},
		"east":     {X: 200, Y: 100, Width: 10, Height: 10},
		"far-east": {X: 300, Y: 100, Width: 10, Height: 10},
		"north":    {X: 100, Y: 0, Width: 10, Height: 10},
		"ghost":    {X: 150, Y: 100, Width: 10, Height: 10},
	}
	s := NewSelection("view-1", snap, nil, nil)
	s.Select(ctx, "center")

	// Nearest node to the right wins; the placeholder between them is
	// skipped even though it is closer.
	s.Navigate(ctx, DirRight, bounds)
	wantTokens(t, s, "east")

	s.Navigate(ctx, DirRight, bounds)
	wantTokens(t, s, "far-east")

	// Nothing further right: unchanged.
	s.Navigate(ctx, DirRight, bounds)
	wantTokens(t, s, "far-east")

	s.Navigate(ctx, DirLeft, bounds)
	wantTokens(t, s, "east")

	s.Select(ctx, "center")
	s.Navigate(ctx, DirUp, bounds)
	wantTokens(t, s, "north")
}

func TestNavigateWithoutSelectionOrBounds(t *testing.T) {
	installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), nil, nil)

	// Empty selection: no-op.
	s.Navigate(ctx, DirRight, map[assetgraph.NodeID]layout.Rect{})
	wantTokens(t, s)

	// Selected node not laid out yet: no-op.
	s.Select(ctx, "A")
	s.Navigate(ctx, DirRight, map[assetgraph.NodeID]layout.Rect{})
	wantTokens(t, s, "A")
}

func TestSelectOffSnapshotResolvesLocation(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	resolver := locate.Static{
		"other/asset": {ViewID: "other-view", Token: "other/asset"},
	}
	s := NewSelection("view-1", chainSnap(), resolver, nil)
	s.Select(ctx, "A")

	// Off-snapshot click never mutates the local selection.
	s.Select(ctx, "other/asset")
	wantTokens(t, s, "A")

	waitFor(t, func() bool { return h.locationCount() == 1 })
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.locations[0] != "other/asset->other-view" {
		t.Errorf("location = %q", h.locations[0])
	}
}

func TestSelectOffSnapshotMissIsNoop(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	s := NewSelection("view-1", chainSnap(), locate.Static{}, nil)

	s.Select(ctx, "unknown/asset")
	wantTokens(t, s)

	// Give the lookup goroutine a moment; no location may surface.
	time.Sleep(50 * time.Millisecond)
	if h.locationCount() != 0 {
		t.Error("miss surfaced a location")
	}
}

// gatedResolver blocks each Resolve until released, for supersede tests.
type gatedResolver struct {
	gate chan struct{}
	loc  locate.Location
}

func (r *gatedResolver) Resolve(ctx context.Context, token string) (locate.Location, bool, error) {
	<-r.gate
	return locate.Location{ViewID: r.loc.ViewID, Token: token}, true, nil
}

func TestStaleLocationLookupIsDiscarded(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()
	r := &gatedResolver{gate: make(chan struct{}), loc: locate.Location{ViewID: "v"}}
	s := NewSelection("view-1", chainSnap(), r, nil)

	// Two lookups; both complete after the second started, so only the
	// newest may apply.
	s.Select(ctx, "stale/asset")
	s.Select(ctx, "fresh/asset")
	close(r.gate)

	waitFor(t, func() bool { return h.locationCount() == 1 })
	time.Sleep(50 * time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.locations) != 1 || h.locations[0] != "fresh/asset->v" {
		t.Errorf("locations = %v, want only the fresh lookup", h.locations)
	}
}

// stallingHooks blocks delivery of one location so a newer lookup can
// finish meanwhile.
type stallingHooks struct {
	*recordingHooks
	stallToken string
	entered    chan struct{}
	gate       chan struct{}
}

func (h *stallingHooks) OnLocationFound(ctx context.Context, token, view string) {
	if token == h.stallToken {
		h.entered <- struct{}{}
		<-h.gate
	}
	h.recordingHooks.OnLocationFound(ctx, token, view)
}

func TestLocationDeliveryKeepsLookupOrder(t *testing.T) {
	rec := &recordingHooks{}
	h := &stallingHooks{
		recordingHooks: rec,
		stallToken:     "stale/asset",
		entered:        make(chan struct{}),
		gate:           make(chan struct{}),
	}
	observability.SetExplorerHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	resolver := locate.Static{
		"stale/asset": {ViewID: "v", Token: "stale/asset"},
		"fresh/asset": {ViewID: "v", Token: "fresh/asset"},
	}
	s := NewSelection("view-1", chainSnap(), resolver, nil)

	// The first lookup stalls mid-delivery; the second completes meanwhile
	// and must wait rather than surface first.
	s.Select(ctx, "stale/asset")
	<-h.entered
	s.Select(ctx, "fresh/asset")
	close(h.gate)

	waitFor(t, func() bool { return rec.locationCount() == 2 })
	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []string{"stale/asset->v", "fresh/asset->v"}
	if !slices.Equal(rec.locations, want) {
		t.Errorf("locations = %v, want %v", rec.locations, want)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
