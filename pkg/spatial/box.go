package spatial

import (
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/tree"
)

// maxBoxCells caps the cells a single box is inserted into. Larger boxes are
// kept in an overflow list that every query inspects.
const maxBoxCells = 1 << 12

// BoxIndex is a uniform grid over rectangles. Each box is stored in every
// cell it covers, so a query finds a box whenever the two rectangles meet,
// even when no corner of the box lies inside the query region.
type BoxIndex struct {
	cell     float64
	ids      []string
	boxes    []tree.Rect
	buckets  map[cellKey][]int
	overflow []int
}

// NewBoxIndex creates an empty box index. A non-positive cellSize selects
// DefaultCellSize.
func NewBoxIndex(cellSize float64) *BoxIndex {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return &BoxIndex{cell: cellSize, buckets: make(map[cellKey][]int)}
}

// CellSize returns the grid cell edge length.
func (b *BoxIndex) CellSize() float64 { return b.cell }

// Len returns the number of indexed boxes.
func (b *BoxIndex) Len() int { return len(b.boxes) }

// Insert adds a box. Empty boxes are ignored.
func (b *BoxIndex) Insert(id string, r tree.Rect) {
	if r.IsEmpty() {
		return
	}
	i := len(b.boxes)
	b.ids = append(b.ids, id)
	b.boxes = append(b.boxes, r)

	lo, hi := b.key(r.MinX, r.MinY), b.key(r.MaxX, r.MaxY)
	if float64(hi.cx-lo.cx+1)*float64(hi.cy-lo.cy+1) > maxBoxCells {
		b.overflow = append(b.overflow, i)
		return
	}
	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cy := lo.cy; cy <= hi.cy; cy++ {
			k := cellKey{cx, cy}
			b.buckets[k] = append(b.buckets[k], i)
		}
	}
}

// Query returns the ids of boxes intersecting r, in insertion order and
// without duplicates.
func (b *BoxIndex) Query(r tree.Rect) []string {
	if r.IsEmpty() || len(b.boxes) == 0 {
		return nil
	}
	lo, hi := b.key(r.MinX, r.MinY), b.key(r.MaxX, r.MaxY)

	seen := make(map[int]bool)
	visit := func(is []int) {
		for _, i := range is {
			if !seen[i] && b.boxes[i].Intersects(r) {
				seen[i] = true
			}
		}
	}
	visit(b.overflow)

	span := float64(hi.cx-lo.cx+1) * float64(hi.cy-lo.cy+1)
	if span > maxQueryCells || span > float64(len(b.buckets)) {
		for k, is := range b.buckets {
			if k.cx >= lo.cx && k.cx <= hi.cx && k.cy >= lo.cy && k.cy <= hi.cy {
				visit(is)
			}
		}
	} else {
		for cx := lo.cx; cx <= hi.cx; cx++ {
			for cy := lo.cy; cy <= hi.cy; cy++ {
				visit(b.buckets[cellKey{cx, cy}])
			}
		}
	}

	order := make([]int, 0, len(seen))
	for i := range seen {
		order = append(order, i)
	}
	slices.Sort(order)
	out := make([]string, len(order))
	for k, i := range order {
		out[k] = b.ids[i]
	}
	return out
}

func (b *BoxIndex) key(x, y float64) cellKey {
	return cellKey{cx: cellCoord(x, b.cell), cy: cellCoord(y, b.cell)}
}
