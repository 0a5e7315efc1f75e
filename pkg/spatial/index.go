// Package spatial implements a bucketed 2D index over node positions.
//
// The index answers "which nodes may fall inside this rectangle" in time
// proportional to the number of grid cells the rectangle touches, regardless
// of how many nodes the tree holds. Results are candidates: a query never
// misses a point inside the region but may return points from the edges of
// touched cells, so callers apply an exact bounding-box test (see [QueryNodes]).
//
// An Index is built wholesale from one tree snapshot and is never mutated
// while being queried; a new layout produces a new index.
package spatial

import (
	"math"

	"github.com/matzehuels/kintree/pkg/tree"
)

// DefaultCellSize is larger than a rendered node's bounding box, so a node
// footprint spans at most four cells.
const DefaultCellSize = 400.0

// maxCellCoord bounds cell coordinates so that huge or infinite query
// rectangles still map to ordered, in-range keys.
const maxCellCoord = 1 << 52

// maxQueryCells caps the cell range walked by a single query; larger regions
// scan the occupied cells instead.
const maxQueryCells = 1 << 16

type cellKey struct{ cx, cy int }

type entry struct {
	id   string
	x, y float64
}

// Index is a uniform grid of buckets keyed by floor(x/cell), floor(y/cell).
// The zero value is not usable; use [New] or [Build].
type Index struct {
	cell    float64
	buckets map[cellKey][]entry
	size    int
}

// New creates an empty index. A non-positive cellSize selects DefaultCellSize.
func New(cellSize float64) *Index {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return &Index{cell: cellSize, buckets: make(map[cellKey][]entry)}
}

// Build indexes every node of g.
func Build(g *tree.Graph, cellSize float64) *Index {
	idx := New(cellSize)
	for _, n := range g.Nodes() {
		idx.Insert(n.ID, n.X, n.Y)
	}
	return idx
}

// CellSize returns the grid cell edge length.
func (idx *Index) CellSize() float64 { return idx.cell }

// Len returns the number of indexed points.
func (idx *Index) Len() int { return idx.size }

// Insert places a point into its bucket. Amortized O(1).
func (idx *Index) Insert(id string, x, y float64) {
	k := idx.key(x, y)
	idx.buckets[k] = append(idx.buckets[k], entry{id: id, x: x, y: y})
	idx.size++
}

// Query returns the IDs stored in every bucket overlapping r. Empty or
// inverted rectangles return nil.
func (idx *Index) Query(r tree.Rect) []string {
	if r.IsEmpty() || idx.size == 0 {
		return nil
	}
	lo, hi := idx.key(r.MinX, r.MinY), idx.key(r.MaxX, r.MaxY)

	var out []string
	span := float64(hi.cx-lo.cx+1) * float64(hi.cy-lo.cy+1)
	if span > maxQueryCells || span > float64(len(idx.buckets)) {
		// Region larger than the occupied grid: walk occupied cells only.
		for k, b := range idx.buckets {
			if k.cx >= lo.cx && k.cx <= hi.cx && k.cy >= lo.cy && k.cy <= hi.cy {
				out = appendIDs(out, b)
			}
		}
		return out
	}

	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cy := lo.cy; cy <= hi.cy; cy++ {
			out = appendIDs(out, idx.buckets[cellKey{cx, cy}])
		}
	}
	return out
}

// QueryExact returns the IDs whose indexed point lies inside r.
func (idx *Index) QueryExact(r tree.Rect) []string {
	if r.IsEmpty() || idx.size == 0 {
		return nil
	}
	lo, hi := idx.key(r.MinX, r.MinY), idx.key(r.MaxX, r.MaxY)
	var out []string
	for k, b := range idx.buckets {
		if k.cx < lo.cx || k.cx > hi.cx || k.cy < lo.cy || k.cy > hi.cy {
			continue
		}
		for _, e := range b {
			if r.Contains(tree.Point{X: e.x, Y: e.y}) {
				out = append(out, e.id)
			}
		}
	}
	return out
}

// QueryNodes returns the nodes of g whose footprint (w x h around the node
// center) intersects r, using idx for candidate selection. The query region
// is widened by half the footprint so nodes straddling the border are kept.
func QueryNodes(idx *Index, g *tree.Graph, r tree.Rect, w, h float64) []tree.Node {
	pad := math.Max(w, h) / 2
	var out []tree.Node
	for _, id := range idx.Query(r.Expand(pad)) {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		if tree.RectAround(n.Position(), w, h).Intersects(r) {
			out = append(out, n)
		}
	}
	return out
}

func (idx *Index) key(x, y float64) cellKey {
	return cellKey{cx: cellCoord(x, idx.cell), cy: cellCoord(y, idx.cell)}
}

// cellCoord returns floor(v/cell) clamped to [-maxCellCoord, maxCellCoord].
// NaN maps to cell 0.
func cellCoord(v, cell float64) int {
	f := math.Floor(v / cell)
	switch {
	case math.IsNaN(f):
		return 0
	case f < -maxCellCoord:
		return -maxCellCoord
	case f > maxCellCoord:
		return maxCellCoord
	}
	return int(f)
}

func appendIDs(out []string, b []entry) []string {
	for _, e := range b {
		out = append(out, e.id)
	}
	return out
}
