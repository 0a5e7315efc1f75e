package tree

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrInvalidNodeID is returned by [New] when a node has an empty ID.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [New] when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownParent is returned by [New] when a connection names a parent
	// that is not part of the snapshot.
	ErrUnknownParent = errors.New("unknown connection parent")

	// ErrNegativeDepth is returned by [New] when a node reports a negative depth.
	ErrNegativeDepth = errors.New("node depth must be >= 0")
)

// Node is one positioned person in the tree. Positions and depths are
// assigned by the external layout stage; the visualization core never
// changes them.
type Node struct {
	ID       string  // Unique identifier
	Name     string  // Display name (optional)
	X, Y     float64 // Layout position (node center)
	Depth    int     // Generations from the designated root (0 = root)
	FatherID string  // Optional father reference
	MotherID string  // Optional mother reference
	HasPhoto bool    // Display flag
}

// Position returns the node center.
func (n Node) Position() Point { return Point{X: n.X, Y: n.Y} }

// HasParents reports whether the node references at least one parent.
func (n Node) HasParents() bool { return n.FatherID != "" || n.MotherID != "" }

// Connection is a parent-to-children adjacency used to derive edge geometry.
// When SpouseID names a placed node, edges originate from the couple's midpoint.
type Connection struct {
	ParentID string
	SpouseID string
	ChildIDs []string
}

// graphVersion hands out snapshot version tokens.
var graphVersion atomic.Uint64

// Graph is an immutable snapshot of a positioned tree, produced once per
// layout pass. Every Graph gets a distinct Version, which downstream caches
// use to detect that a new layout replaced the old one.
//
// The zero value is an empty graph. Graph is safe for concurrent reads.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	conns   []Connection
	bounds  Rect
	version uint64
}

// New builds a snapshot from nodes and connections. Nodes and connections are
// copied; later changes to the inputs do not affect the snapshot.
//
// Child IDs that do not name a node are dropped from the connection since they
// cannot be positioned. A connection whose parent is unknown is an error.
// Passing nil connections leaves the graph without edges; use
// [DeriveConnections] to rebuild them from parent references.
func New(nodes []Node, conns []Connection) (*Graph, error) {
	g := &Graph{
		nodes:   make(map[string]*Node, len(nodes)),
		order:   make([]string, 0, len(nodes)),
		version: graphVersion.Add(1),
	}

	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: %w", i, ErrInvalidNodeID)
		}
		if n.Depth < 0 {
			return nil, fmt.Errorf("node %s: %w", n.ID, ErrNegativeDepth)
		}
		if _, exists := g.nodes[n.ID]; exists {
			return nil, fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID)
		}
		g.nodes[n.ID] = &n
		g.order = append(g.order, n.ID)
		pt := Rect{MinX: n.X, MinY: n.Y, MaxX: n.X, MaxY: n.Y}
		if i == 0 {
			g.bounds = pt
		} else {
			g.bounds = g.bounds.Union(pt)
		}
	}

	g.conns = make([]Connection, 0, len(conns))
	for _, c := range conns {
		if _, ok := g.nodes[c.ParentID]; !ok {
			return nil, fmt.Errorf("connection %s: %w", c.ParentID, ErrUnknownParent)
		}
		kids := make([]string, 0, len(c.ChildIDs))
		for _, id := range c.ChildIDs {
			if _, ok := g.nodes[id]; ok {
				kids = append(kids, id)
			}
		}
		spouse := c.SpouseID
		if _, ok := g.nodes[spouse]; !ok {
			spouse = ""
		}
		g.conns = append(g.conns, Connection{ParentID: c.ParentID, SpouseID: spouse, ChildIDs: kids})
	}

	return g, nil
}

// Version returns the snapshot token. Two graphs never share a version.
// The zero Graph has version 0.
func (g *Graph) Version() uint64 {
	if g == nil {
		return 0
	}
	return g.version
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether id names a node in the snapshot.
func (g *Graph) Has(id string) bool {
	if g == nil {
		return false
	}
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in input order.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = *g.nodes[id]
	}
	return out
}

// Connections returns the parent-to-children adjacencies in input order.
// The returned slice must not be modified.
func (g *Graph) Connections() []Connection {
	if g == nil {
		return nil
	}
	return g.conns
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// Bounds returns the bounding box of all node centers and whether the graph
// has any nodes. An empty graph has no bounds.
func (g *Graph) Bounds() (Rect, bool) {
	if g.Len() == 0 {
		return Rect{}, false
	}
	return g.bounds, true
}

// Origin returns the point edges of c start from: the midpoint of parent and
// spouse when the spouse is placed, otherwise the parent position.
func (g *Graph) Origin(c Connection) (Point, bool) {
	p, ok := g.Node(c.ParentID)
	if !ok {
		return Point{}, false
	}
	if s, ok := g.Node(c.SpouseID); ok {
		return Point{X: (p.X + s.X) / 2, Y: (p.Y + s.Y) / 2}, true
	}
	return p.Position(), true
}

// DeriveConnections rebuilds connections from father/mother references.
// Children are grouped by parent couple in input order; the father is the
// connection parent when placed, otherwise the mother. References to nodes
// missing from nodes are ignored.
func DeriveConnections(nodes []Node) []Connection {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	type couple struct{ parent, spouse string }
	index := make(map[couple]int)
	var conns []Connection

	for _, n := range nodes {
		father, mother := n.FatherID, n.MotherID
		if !present[father] {
			father = ""
		}
		if !present[mother] {
			mother = ""
		}
		key := couple{parent: father, spouse: mother}
		if father == "" {
			key = couple{parent: mother}
		}
		if key.parent == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(conns)
			index[key] = i
			conns = append(conns, Connection{ParentID: key.parent, SpouseID: key.spouse})
		}
		conns[i].ChildIDs = append(conns[i].ChildIDs, n.ID)
	}
	return conns
}
