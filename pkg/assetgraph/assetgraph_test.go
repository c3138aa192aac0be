package assetgraph

import (
	"path/filepath"
	"slices"
	"testing"
)

// buildChain builds A→B→C→D with every node in group G of repo/location.
func buildChain(t *testing.T) *Snapshot {
	t.Helper()
	def := func(name string) *Definition {
		return &Definition{
			Path:                   []string{name},
			GroupName:              "g",
			RepositoryName:         "repo",
			RepositoryLocationName: "loc",
		}
	}
	nodes := []Node{
		{ID: "A", Definition: def("A")},
		{ID: "B", Definition: def("B")},
		{ID: "C", Definition: def("C")},
		{ID: "D", Definition: def("D")},
	}
	edges := []Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "D"}}
	return Build(nodes, edges)
}

func TestTokenFromPath(t *testing.T) {
	if got := TokenFromPath([]string{"analytics", "daily", "users"}); got != "analytics/daily/users" {
		t.Errorf("TokenFromPath = %q", got)
	}
}

func TestBuildIndexes(t *testing.T) {
	s := buildChain(t)

	if s.NodeCount() != 4 {
		t.Fatalf("NodeCount = %d, want 4", s.NodeCount())
	}
	gid := GroupKey("loc", "repo", "g")
	if !s.HasGroup(gid) {
		t.Fatalf("group %q missing", gid)
	}
	members := s.MembersOf(gid)
	want := []NodeID{"A", "B", "C", "D"}
	if !slices.Equal(members, want) {
		t.Errorf("MembersOf = %v, want %v", members, want)
	}
	if got := s.Downstream("B"); !slices.Equal(got, []NodeID{"C"}) {
		t.Errorf("Downstream(B) = %v", got)
	}
	if got := s.Upstream("B"); !slices.Equal(got, []NodeID{"A"}) {
		t.Errorf("Upstream(B) = %v", got)
	}
}

func TestBuildDropsDanglingEdges(t *testing.T) {
	s := Build(
		[]Node{{ID: "A"}, {ID: "B"}},
		[]Edge{{From: "A", To: "B"}, {From: "A", To: "ghost"}, {From: "ghost", To: "B"}},
	)
	if got := len(s.Edges()); got != 1 {
		t.Errorf("edges = %d, want 1", got)
	}
}

func TestConnectedChain(t *testing.T) {
	s := buildChain(t)

	tests := []struct {
		name     string
		from, to NodeID
		want     []NodeID
	}{
		{"forward", "A", "D", []NodeID{"A", "B", "C", "D"}},
		{"reverse", "D", "A", []NodeID{"D", "C", "B", "A"}},
		{"adjacent", "B", "C", []NodeID{"B", "C"}},
		{"self", "B", "B", []NodeID{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ConnectedChain(tt.from, tt.to)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ConnectedChain(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConnectedChainDisconnected(t *testing.T) {
	s := Build([]Node{{ID: "A"}, {ID: "B"}, {ID: "X"}}, []Edge{{From: "A", To: "B"}})
	if got := s.ConnectedChain("A", "X"); got != nil {
		t.Errorf("ConnectedChain over disconnected nodes = %v, want nil", got)
	}
	if got := s.ConnectedChain("A", "missing"); got != nil {
		t.Errorf("ConnectedChain to unknown node = %v, want nil", got)
	}
}

func TestConnectedChainCrossesGroups(t *testing.T) {
	// A depends on X which depends on B; the chain runs against edge
	// direction on the first hop.
	s := Build(
		[]Node{{ID: "A"}, {ID: "B"}, {ID: "X"}},
		[]Edge{{From: "X", To: "A"}, {From: "X", To: "B"}},
	)
	got := s.ConnectedChain("A", "B")
	want := []NodeID{"A", "X", "B"}
	if !slices.Equal(got, want) {
		t.Errorf("ConnectedChain = %v, want %v", got, want)
	}
}

func TestWireRoundTrip(t *testing.T) {
	s := buildChain(t)

	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !slices.Equal(back.NodeIDs(), s.NodeIDs()) {
		t.Errorf("round-trip nodes = %v, want %v", back.NodeIDs(), s.NodeIDs())
	}
	if back.Fingerprint() != s.Fingerprint() {
		t.Error("round-trip changed the fingerprint")
	}
}

func TestFingerprintIgnoresInputOrder(t *testing.T) {
	nodes := []Node{{ID: "A"}, {ID: "B"}}
	edges := []Edge{{From: "A", To: "B"}}

	a := Build(nodes, edges)
	b := Build([]Node{nodes[1], nodes[0]}, edges)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprints differ for identical graphs built in different order")
	}

	c := Build(nodes, nil)
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprints equal for different graphs")
	}
}

func TestReadWriteFile(t *testing.T) {
	s := buildChain(t)
	path := filepath.Join(t.TempDir(), "snapshot.json")

	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.NodeCount() != s.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", back.NodeCount(), s.NodeCount())
	}
}
