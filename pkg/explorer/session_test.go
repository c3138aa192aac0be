package explorer

import (
	"context"
	"sync"
	"testing"

	"github.com/graphport/graphport/pkg/assetgraph"
	"github.com/graphport/graphport/pkg/observability"
)

type filterHooks struct {
	observability.NoopExplorerHooks
	mu      sync.Mutex
	filters []string
}

func (h *filterHooks) OnGroupFilterRequested(ctx context.Context, viewID, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filters = append(h.filters, viewID+"/"+groupID)
}

func TestSessionGroupFilterRequest(t *testing.T) {
	h := &filterHooks{}
	observability.SetExplorerHooks(h)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	sess := NewSession(ctx, "view-1", twoGroupSnap(), nil, nil, nil)

	sess.RequestGroupFilter(ctx, g1)
	sess.RequestGroupFilter(ctx, "loc:repo:ghost") // unknown: no-op

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.filters) != 1 || h.filters[0] != "view-1/"+string(g1) {
		t.Errorf("filters = %v", h.filters)
	}
}

func TestSessionSnapshotSwapKeepsState(t *testing.T) {
	observability.Reset()
	ctx := context.Background()
	sess := NewSession(ctx, "view-1", twoGroupSnap(), nil, nil, nil)

	sess.Selection.Select(ctx, "A")
	sess.Groups.Expand(ctx, g1)

	// Refreshed data: same groups, one extra node.
	def := &assetgraph.Definition{
		Path: []string{"E"}, GroupName: "g1",
		RepositoryName: "repo", RepositoryLocationName: "loc",
	}
	next := assetgraph.Build(append([]assetgraph.Node{
		{ID: "E", Definition: def},
	}, snapNodes()...), nil)
	sess.ApplySnapshot(ctx, next)

	if got := sess.Selection.Tokens(); len(got) != 1 || got[0] != "A" {
		t.Errorf("selection after swap = %v, want [A]", got)
	}
	if !sess.Groups.IsExpanded(g1) {
		t.Error("expansion lost on snapshot swap")
	}
	if sess.Snapshot() != next {
		t.Error("snapshot not swapped")
	}
}

// snapNodes returns the node set of twoGroupSnap for rebuilding variants.
func snapNodes() []assetgraph.Node {
	def := func(name, group string) *assetgraph.Definition {
		return &assetgraph.Definition{
			Path:                   []string{name},
			GroupName:              group,
			RepositoryName:         "repo",
			RepositoryLocationName: "loc",
		}
	}
	return []assetgraph.Node{
		{ID: "A", Definition: def("A", "g1")},
		{ID: "B", Definition: def("B", "g1")},
		{ID: "C", Definition: def("C", "g2")},
	}
}
