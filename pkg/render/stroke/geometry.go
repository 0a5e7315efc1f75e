package stroke

import (
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/tree"
)

// Dimensions is the rendered footprint of a node in layout units.
type Dimensions struct {
	NodeWidth  float64 `toml:"node_width" json:"node_width"`
	NodeHeight float64 `toml:"node_height" json:"node_height"`
}

// DefaultDimensions matches the card size the layout stage spaces nodes for.
func DefaultDimensions() Dimensions {
	return Dimensions{NodeWidth: 120, NodeHeight: 60}
}

// BusY returns the height of the horizontal bus joining a parent to its
// children: halfway between the parent's bottom edge and the top edge of the
// nearest child. Base and highlighted edges both use it, so they align.
func BusY(parentBottom, nearestChildTop float64) float64 {
	return (parentBottom + nearestChildTop) / 2
}

// Route returns the three-segment polyline from a parent anchor to a child
// anchor: a vertical drop to busY, a horizontal run, and a vertical rise into
// the child.
func Route(from, to tree.Point, busY float64) []tree.Point {
	return []tree.Point{
		from,
		{X: from.X, Y: busY},
		{X: to.X, Y: busY},
		to,
	}
}

// Edge is the routed geometry of one parent-to-child edge. ParentID is the
// connection parent; SpouseID is set when the edge starts at a couple.
type Edge struct {
	ParentID string       `json:"parent_id"`
	SpouseID string       `json:"spouse_id,omitempty"`
	ChildID  string       `json:"child_id"`
	Points   []tree.Point `json:"points"`
}

// Bounds returns the bounding box of the edge polyline.
func (e Edge) Bounds() tree.Rect {
	r, _ := tree.BoundsOf(e.Points...)
	return r
}

// From reports whether id is one of the edge's parents.
func (e Edge) From(id string) bool {
	return id != "" && (id == e.ParentID || id == e.SpouseID)
}

// ConnectionRoutes routes every child of c. Children share one bus placed
// relative to the nearest child.
func ConnectionRoutes(g *tree.Graph, c tree.Connection, dims Dimensions) []Edge {
	origin, ok := g.Origin(c)
	if !ok || len(c.ChildIDs) == 0 {
		return nil
	}
	half := dims.NodeHeight / 2
	from := tree.Point{X: origin.X, Y: origin.Y + half}

	nearest := math.Inf(1)
	kids := make([]tree.Node, 0, len(c.ChildIDs))
	for _, id := range c.ChildIDs {
		if n, ok := g.Node(id); ok {
			kids = append(kids, n)
			nearest = math.Min(nearest, n.Y-half)
		}
	}
	if len(kids) == 0 {
		return nil
	}

	bus := BusY(from.Y, nearest)
	out := make([]Edge, len(kids))
	for i, k := range kids {
		out[i] = Edge{
			ParentID: c.ParentID,
			SpouseID: c.SpouseID,
			ChildID:  k.ID,
			Points:   Route(from, tree.Point{X: k.X, Y: k.Y - half}, bus),
		}
	}
	return out
}

// Routes indexes every routed edge of a graph by child.
type Routes struct {
	all     []Edge
	byChild map[string]int
}

// NewRoutes routes all connections of g. A child listed under more than one
// connection keeps its first route.
func NewRoutes(g *tree.Graph, dims Dimensions) *Routes {
	r := &Routes{byChild: make(map[string]int)}
	for _, c := range g.Connections() {
		for _, e := range ConnectionRoutes(g, c, dims) {
			if _, dup := r.byChild[e.ChildID]; dup {
				continue
			}
			i := len(r.all)
			r.all = append(r.all, e)
			r.byChild[e.ChildID] = i
		}
	}
	return r
}

// Edge returns the route from parent to child, if child hangs below parent.
func (r *Routes) Edge(parent, child string) (Edge, bool) {
	i, ok := r.byChild[child]
	if !ok || !r.all[i].From(parent) {
		return Edge{}, false
	}
	return r.all[i], true
}

// Len returns the number of routed edges.
func (r *Routes) Len() int { return len(r.all) }

// All returns every routed edge in connection order. The slice must not be
// modified.
func (r *Routes) All() []Edge { return r.all }

// ForChildren returns the edges hanging above the given children, in
// connection order. Unknown ids are skipped.
func (r *Routes) ForChildren(ids []string) []Edge {
	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.byChild[id]; ok {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	out := make([]Edge, len(idx))
	for k, i := range idx {
		out[k] = r.all[i]
	}
	return out
}
