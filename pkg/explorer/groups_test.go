package explorer

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/viewstate"
)

// twoGroupSnap builds a snapshot with groups g1={A,B} and g2={C}.
func twoGroupSnap() *assetgraph.Snapshot {
	def := func(name, group string) *assetgraph.Definition {
		return &assetgraph.Definition{
			Path:                   []string{name},
			GroupName:              group,
			RepositoryName:         "repo",
			RepositoryLocationName: "loc",
		}
	}
	return assetgraph.Build([]assetgraph.Node{
		{ID: "A", Definition: def("A", "g1")},
		{ID: "B", Definition: def("B", "g1")},
		{ID: "C", Definition: def("C", "g2")},
	}, []assetgraph.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}})
}

var (
	g1 = assetgraph.GroupKey("loc", "repo", "g1")
	g2 = assetgraph.GroupKey("loc", "repo", "g2")
)

func TestGroupsExpandCollapse(t *testing.T) {
	ctx := context.Background()
	g := NewGroups(ctx, "view-1", twoGroupSnap(), nil, nil)

	if g.IsExpanded(g1) {
		t.Error("groups should start collapsed")
	}

	g.Expand(ctx, g1)
	if !g.IsExpanded(g1) {
		t.Error("Expand did not expand")
	}
	g.Expand(ctx, g1) // idempotent
	if got := g.ExpandedIDs(); !slices.Equal(got, []assetgraph.GroupID{g1}) {
		t.Errorf("ExpandedIDs = %v, want [%s]", got, g1)
	}

	g.Collapse(ctx, g1)
	if g.IsExpanded(g1) {
		t.Error("Collapse did not collapse")
	}

	// Unknown IDs are no-ops, never fatal.
	g.Expand(ctx, "loc:repo:ghost")
	g.Collapse(ctx, "loc:repo:ghost")
	if len(g.ExpandedIDs()) != 0 {
		t.Errorf("unknown group mutated state: %v", g.ExpandedIDs())
	}
}

func TestGroupsExpandAllCollapseAll(t *testing.T) {
	ctx := context.Background()
	g := NewGroups(ctx, "view-1", twoGroupSnap(), nil, nil)

	g.ExpandAll(ctx)
	if got := g.ExpandedIDs(); !slices.Equal(got, []assetgraph.GroupID{g1, g2}) {
		t.Errorf("ExpandedIDs after ExpandAll = %v", got)
	}

	g.CollapseAll(ctx)
	if len(g.ExpandedIDs()) != 0 {
		t.Errorf("ExpandedIDs after CollapseAll = %v", g.ExpandedIDs())
	}
}

func TestGroupsCollapseRecordsFocus(t *testing.T) {
	ctx := context.Background()
	g := NewGroups(ctx, "view-1", twoGroupSnap(), nil, nil)

	g.Expand(ctx, g1)
	g.Collapse(ctx, g1)

	id, ok := g.TakeFocusGroup()
	if !ok || id != g1 {
		t.Errorf("TakeFocusGroup = %v, %v; want %s, true", id, ok, g1)
	}

	// Consumed once.
	if _, ok := g.TakeFocusGroup(); ok {
		t.Error("focus pointer not cleared after take")
	}
}

func TestGroupsStatePersistsAcrossControllers(t *testing.T) {
	ctx := context.Background()
	store := viewstate.NewMemoryStore()

	g := NewGroups(ctx, "view-1", twoGroupSnap(), store, nil)
	g.Expand(ctx, g1)
	opts := g.Options()
	opts.DimUnselected = true
	g.SetOptions(ctx, opts)

	// A fresh controller for the same view sees the persisted state.
	g2c := NewGroups(ctx, "view-1", twoGroupSnap(), store, nil)
	if !g2c.IsExpanded(g1) {
		t.Error("expanded set did not survive reload")
	}
	if !g2c.Options().DimUnselected {
		t.Error("options did not survive reload")
	}

	// A different view starts fresh.
	other := NewGroups(ctx, "view-2", twoGroupSnap(), store, nil)
	if len(other.ExpandedIDs()) != 0 {
		t.Error("state leaked across views")
	}
}

func TestGroupsSnapshotSwapPrunesRemovedGroups(t *testing.T) {
	ctx := context.Background()
	g := NewGroups(ctx, "view-1", twoGroupSnap(), nil, nil)
	g.ExpandAll(ctx)

	// New snapshot without g2.
	def := &assetgraph.Definition{
		Path: []string{"A"}, GroupName: "g1",
		RepositoryName: "repo", RepositoryLocationName: "loc",
	}
	next := assetgraph.Build([]assetgraph.Node{{ID: "A", Definition: def}}, nil)

	g.SetSnapshot(ctx, next)
	if got := g.ExpandedIDs(); !slices.Equal(got, []assetgraph.GroupID{g1}) {
		t.Errorf("ExpandedIDs after swap = %v, want [%s]", got, g1)
	}
}

// failingStore always errors on Save to verify persistence degrades
// silently.
type failingStore struct{ viewstate.MemoryStore }

func (f *failingStore) Save(ctx context.Context, viewID string, st *viewstate.State) error {
	return errors.New("store down")
}

func TestGroupsStoreFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	g := NewGroups(ctx, "view-1", twoGroupSnap(), &failingStore{}, nil)

	// Mutations still apply locally.
	g.Expand(ctx, g1)
	if !g.IsExpanded(g1) {
		t.Error("store failure blocked the mutation")
	}
}
