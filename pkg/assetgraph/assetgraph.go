// Package assetgraph builds immutable snapshots of an asset dependency graph.
//
// A [Snapshot] is a pure index over one version of the graph: nodes, edges,
// group membership, and forward/reverse adjacency. Snapshots carry no UI
// state; group expansion and selection live in the explorer package and are
// rebuilt against each new snapshot. Building a snapshot never fails: edges
// that reference unknown nodes are dropped.
//
// # Identity
//
// Node identity is the token derived from the asset key path, segments
// joined with "/". Group identity is "location:repository:group". Both are
// stable across snapshots, which is what lets selection and expansion state
// survive a data refresh.
package assetgraph

import (
	"slices"
	"strings"
)

// NodeID is the string token identifying a node, derived from its asset key
// path. It doubles as the selection token in query state.
type NodeID string

// GroupID identifies a group as "location:repository:group".
type GroupID string

// TokenFromPath derives the node token from an asset key path.
func TokenFromPath(path []string) NodeID {
	return NodeID(strings.Join(path, "/"))
}

// GroupKey derives the group identity from its naming triple.
func GroupKey(location, repository, group string) GroupID {
	return GroupID(location + ":" + repository + ":" + group)
}

// Definition carries the externally owned definition data for a node.
// Nodes without a definition are placeholders for assets that live in
// another view (external links).
type Definition struct {
	Path                   []string `json:"path" bson:"path"`
	Description            string   `json:"description,omitempty" bson:"description,omitempty"`
	ComputeKind            string   `json:"compute_kind,omitempty" bson:"compute_kind,omitempty"`
	GroupName              string   `json:"group_name,omitempty" bson:"group_name,omitempty"`
	RepositoryName         string   `json:"repository_name,omitempty" bson:"repository_name,omitempty"`
	RepositoryLocationName string   `json:"repository_location_name,omitempty" bson:"repository_location_name,omitempty"`
	Materializable         bool     `json:"materializable,omitempty" bson:"materializable,omitempty"`
}

// Node is one vertex of the graph. Immutable once the snapshot is built.
type Node struct {
	ID         NodeID
	Definition *Definition // nil for external-link placeholders
	GroupID    GroupID     // empty when the node has no definition
}

// IsPlaceholder reports whether the node stands in for an asset defined in
// another view.
func (n *Node) IsPlaceholder() bool { return n.Definition == nil }

// Edge is a directed dependency between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
}

// Group describes one asset group. Membership is derived by the snapshot;
// expansion state is owned elsewhere.
type Group struct {
	ID                     GroupID
	Name                   string
	RepositoryName         string
	RepositoryLocationName string
}

// Snapshot is one immutable index build over a graph version.
type Snapshot struct {
	nodes    map[NodeID]*Node
	nodeIDs  []NodeID // sorted
	edges    []Edge
	groups   map[GroupID]*Group
	groupIDs []GroupID // sorted
	members  map[GroupID][]NodeID
	forward  map[NodeID][]NodeID // sorted adjacency
	reverse  map[NodeID][]NodeID
}

// Build indexes nodes and edges into a snapshot. Pure: the input slices are
// not retained and may be reused by the caller. Edges whose endpoints are
// unknown are dropped.
func Build(nodes []Node, edges []Edge) *Snapshot {
	s := &Snapshot{
		nodes:   make(map[NodeID]*Node, len(nodes)),
		groups:  make(map[GroupID]*Group),
		members: make(map[GroupID][]NodeID),
		forward: make(map[NodeID][]NodeID),
		reverse: make(map[NodeID][]NodeID),
	}

	for i := range nodes {
		n := nodes[i]
		if _, ok := s.nodes[n.ID]; ok {
			continue
		}
		if n.GroupID == "" && n.Definition != nil {
			n.GroupID = GroupKey(n.Definition.RepositoryLocationName,
				n.Definition.RepositoryName, n.Definition.GroupName)
		}
		s.nodes[n.ID] = &n
		s.nodeIDs = append(s.nodeIDs, n.ID)

		if n.Definition == nil || n.GroupID == "" {
			continue
		}
		if _, ok := s.groups[n.GroupID]; !ok {
			s.groups[n.GroupID] = &Group{
				ID:                     n.GroupID,
				Name:                   n.Definition.GroupName,
				RepositoryName:         n.Definition.RepositoryName,
				RepositoryLocationName: n.Definition.RepositoryLocationName,
			}
			s.groupIDs = append(s.groupIDs, n.GroupID)
		}
		s.members[n.GroupID] = append(s.members[n.GroupID], n.ID)
	}

	for _, e := range edges {
		if _, ok := s.nodes[e.From]; !ok {
			continue
		}
		if _, ok := s.nodes[e.To]; !ok {
			continue
		}
		if slices.Contains(s.forward[e.From], e.To) {
			continue
		}
		s.edges = append(s.edges, e)
		s.forward[e.From] = append(s.forward[e.From], e.To)
		s.reverse[e.To] = append(s.reverse[e.To], e.From)
	}

	slices.Sort(s.nodeIDs)
	slices.Sort(s.groupIDs)
	for _, m := range s.members {
		slices.Sort(m)
	}
	for _, adj := range s.forward {
		slices.Sort(adj)
	}
	for _, adj := range s.reverse {
		slices.Sort(adj)
	}
	return s
}

// Node returns the node for id, or nil when the snapshot has no such node.
func (s *Snapshot) Node(id NodeID) *Node { return s.nodes[id] }

// Has reports whether id is part of this snapshot.
func (s *Snapshot) Has(id NodeID) bool { return s.nodes[id] != nil }

// NodeIDs returns all node tokens in sorted order.
func (s *Snapshot) NodeIDs() []NodeID { return slices.Clone(s.nodeIDs) }

// NodeCount returns the number of nodes.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// Edges returns all edges in input order.
func (s *Snapshot) Edges() []Edge { return slices.Clone(s.edges) }

// Group returns the group for id, or nil when unknown.
func (s *Snapshot) Group(id GroupID) *Group { return s.groups[id] }

// HasGroup reports whether id is a group of this snapshot.
func (s *Snapshot) HasGroup(id GroupID) bool { return s.groups[id] != nil }

// GroupIDs returns all group ids in sorted order.
func (s *Snapshot) GroupIDs() []GroupID { return slices.Clone(s.groupIDs) }

// MembersOf returns the sorted member tokens of a group. Unknown groups
// yield nil.
func (s *Snapshot) MembersOf(id GroupID) []NodeID {
	return slices.Clone(s.members[id])
}

// Downstream returns the direct forward neighbors of id, sorted.
func (s *Snapshot) Downstream(id NodeID) []NodeID {
	return slices.Clone(s.forward[id])
}

// Upstream returns the direct reverse neighbors of id, sorted.
func (s *Snapshot) Upstream(id NodeID) []NodeID {
	return slices.Clone(s.reverse[id])
}

// ConnectedChain searches for a path between from and to over the union of
// forward and reverse adjacency and returns the token chain including both
// endpoints, or nil when no path exists. Breadth-first from the from node
// with neighbors expanded in sorted order, so the discovered chain is
// deterministic. Used for range selection: any simple path is acceptable.
func (s *Snapshot) ConnectedChain(from, to NodeID) []NodeID {
	if !s.Has(from) || !s.Has(to) {
		return nil
	}
	if from == to {
		return []NodeID{from}
	}

	parent := map[NodeID]NodeID{from: from}
	queue := []NodeID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range s.neighbors(cur) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == to {
				return chainFrom(parent, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// neighbors merges forward and reverse adjacency for id, sorted, without
// duplicates.
func (s *Snapshot) neighbors(id NodeID) []NodeID {
	fwd, rev := s.forward[id], s.reverse[id]
	if len(rev) == 0 {
		return fwd
	}
	if len(fwd) == 0 {
		return rev
	}
	merged := make([]NodeID, 0, len(fwd)+len(rev))
	merged = append(merged, fwd...)
	merged = append(merged, rev...)
	slices.Sort(merged)
	return slices.Compact(merged)
}

// chainFrom walks parent pointers back from to and reverses the result.
func chainFrom(parent map[NodeID]NodeID, from, to NodeID) []NodeID {
	var chain []NodeID
	for cur := to; cur != from; cur = parent[cur] {
		chain = append(chain, cur)
	}
	chain = append(chain, from)
	slices.Reverse(chain)
	return chain
}
