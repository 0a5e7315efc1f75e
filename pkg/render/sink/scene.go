package sink

import (
	"math"

	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
)

const (
	defaultPadding    = 40.0
	defaultBackground = "#101018"
	defaultEdgeColor  = "#3c3c4e"
	defaultNodeFill   = "#1c1c26"
	defaultNodeStroke = "#5a5a70"
	defaultTextColor  = "#e6e6f0"
	baseEdgeWidth     = 1.5
)

// sceneOptions are shared by the vector and raster sinks.
type sceneOptions struct {
	dims       stroke.Dimensions
	padding    float64
	background string
	labels     bool
	viewport   *tree.Rect
	extra      []stroke.Stroke
}

func defaultSceneOptions() sceneOptions {
	return sceneOptions{
		dims:       stroke.DefaultDimensions(),
		padding:    defaultPadding,
		background: defaultBackground,
		labels:     true,
	}
}

// bounds returns the world rectangle drawn by a sink: the explicit viewport
// when set, then the frame's viewport, then every node card plus padding.
func (o sceneOptions) bounds(g *tree.Graph, f *render.Frame) tree.Rect {
	if o.viewport != nil && !o.viewport.IsEmpty() {
		return *o.viewport
	}
	if f != nil && f.Viewport != nil && !f.Viewport.IsEmpty() {
		return *f.Viewport
	}
	b, ok := g.Bounds()
	if !ok {
		return tree.Rect{MaxX: 1, MaxY: 1}.Expand(o.padding)
	}
	b.MinX -= o.dims.NodeWidth / 2
	b.MaxX += o.dims.NodeWidth / 2
	b.MinY -= o.dims.NodeHeight / 2
	b.MaxY += o.dims.NodeHeight / 2
	return b.Expand(o.padding)
}

// strokes returns the frame's glow strokes followed by any extra strokes.
func (o sceneOptions) strokes(f *render.Frame) []stroke.Stroke {
	return append(render.Strokes(f), o.extra...)
}

// visibleNodes returns the nodes whose card intersects view.
func (o sceneOptions) visibleNodes(g *tree.Graph, view tree.Rect) []tree.Node {
	var out []tree.Node
	for _, n := range g.Nodes() {
		if tree.RectAround(n.Position(), o.dims.NodeWidth, o.dims.NodeHeight).Intersects(view) {
			out = append(out, n)
		}
	}
	return out
}

// visibleEdges returns the base edges whose bounds intersect view.
func (o sceneOptions) visibleEdges(g *tree.Graph, view tree.Rect) []stroke.Edge {
	var out []stroke.Edge
	for _, e := range stroke.NewRoutes(g, o.dims).All() {
		if e.Bounds().Intersects(view) {
			out = append(out, e)
		}
	}
	return out
}

func label(n tree.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// truncate shortens s so that it fits in width at roughly 0.6em per char.
func truncate(s string, width, fontSize float64) string {
	maxChars := int(math.Floor(width / (fontSize * 0.6)))
	if maxChars < 3 {
		maxChars = 3
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars-2]) + ".."
}
