package assetgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// =============================================================================
// Graph - Snapshot Serialization
// =============================================================================

// Graph is the canonical serialization format for graph snapshots.
// Used for API responses, file snapshots, and MongoDB documents.
//
// The format is designed for round-trip fidelity: a snapshot serialized and
// re-imported indexes identically.
type Graph struct {
	Nodes []WireNode `json:"nodes" bson:"nodes"`
	Edges []WireEdge `json:"edges" bson:"edges"`
}

// WireNode is the serialized node form.
type WireNode struct {
	ID         string      `json:"id" bson:"id"`
	Definition *Definition `json:"definition,omitempty" bson:"definition,omitempty"`
	GroupID    string      `json:"group_id,omitempty" bson:"group_id,omitempty"`
}

// WireEdge is the serialized edge form.
type WireEdge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// =============================================================================
// Snapshot ↔ Graph Conversion
// =============================================================================

// ToGraph converts a snapshot to its serialization format.
// Nodes are emitted in sorted token order for deterministic output.
func (s *Snapshot) ToGraph() Graph {
	out := Graph{
		Nodes: make([]WireNode, 0, len(s.nodeIDs)),
		Edges: make([]WireEdge, 0, len(s.edges)),
	}
	for _, id := range s.nodeIDs {
		n := s.nodes[id]
		out.Nodes = append(out.Nodes, WireNode{
			ID:         string(n.ID),
			Definition: n.Definition,
			GroupID:    string(n.GroupID),
		})
	}
	edges := slices.Clone(s.edges)
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.From != b.From {
			return cmpID(a.From, b.From)
		}
		return cmpID(a.To, b.To)
	})
	for _, e := range edges {
		out.Edges = append(out.Edges, WireEdge{From: string(e.From), To: string(e.To)})
	}
	return out
}

// FromGraph indexes a serialized graph into a snapshot.
func FromGraph(g Graph) *Snapshot {
	nodes := make([]Node, len(g.Nodes))
	for i, wn := range g.Nodes {
		nodes[i] = Node{
			ID:         NodeID(wn.ID),
			Definition: wn.Definition,
			GroupID:    GroupID(wn.GroupID),
		}
	}
	edges := make([]Edge, len(g.Edges))
	for i, we := range g.Edges {
		edges[i] = Edge{From: NodeID(we.From), To: NodeID(we.To)}
	}
	return Build(nodes, edges)
}

func cmpID(a, b NodeID) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// =============================================================================
// Encoding Helpers
// =============================================================================

// Marshal serializes the snapshot to indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s.ToGraph(), "", "  ")
}

// Unmarshal deserializes JSON bytes into a snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}
	return FromGraph(g), nil
}

// ReadFile loads a snapshot from a JSON file.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile writes the snapshot as JSON to path.
func (s *Snapshot) WriteFile(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Fingerprint returns a stable SHA-256 hex digest of the snapshot content.
// Equal graphs produce equal fingerprints regardless of input order, which
// makes the fingerprint usable as a layout cache key component.
func (s *Snapshot) Fingerprint() string {
	data, _ := json.Marshal(s.ToGraph())
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
