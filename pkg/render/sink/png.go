package sink

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
)

// maxPNGSide bounds either side of a raster in pixels.
const maxPNGSide = 16384

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svgOpts []SVGOption
	scale   float64
}

// WithPNGSVGOptions applies scene options (dimensions, padding, viewport,
// extra strokes) shared with the SVG sink.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) { r.svgOpts = opts }
}

// WithScale sets pixels per world unit (default 1.0).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// RenderPNG rasterizes g with the highlights compiled into f.
func RenderPNG(g *tree.Graph, f *render.Frame, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1.0}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsNaN(r.scale) || math.IsInf(r.scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %v", r.scale)
	}

	o := newSceneOptions(r.svgOpts...)
	view := o.bounds(g, f)
	w := int(math.Ceil(view.Width() * r.scale))
	h := int(math.Ceil(view.Height() * r.scale))
	if w < 1 || h < 1 || w > maxPNGSide || h > maxPNGSide {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png size %dx%d out of range (max %d)", w, h, maxPNGSide)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()
	c := canvas{dc: dc, view: view, scale: r.scale}

	dc.ClearWithColor(gg.Hex(o.background))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, e := range o.visibleEdges(g, view) {
		if err := c.polyline(e.Points, defaultEdgeColor, baseEdgeWidth, 1); err != nil {
			return nil, err
		}
	}

	for _, s := range o.strokes(f) {
		if err := c.stroke(s); err != nil {
			return nil, err
		}
	}

	for _, n := range o.visibleNodes(g, view) {
		if err := c.node(n, o.dims); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// canvas maps world coordinates onto the pixel grid.
type canvas struct {
	dc    *gg.Context
	view  tree.Rect
	scale float64
}

func (c canvas) px(p tree.Point) (float64, float64) {
	return (p.X - c.view.MinX) * c.scale, (p.Y - c.view.MinY) * c.scale
}

func (c canvas) stroke(s stroke.Stroke) error {
	if s.Blend != stroke.BlendAdditive {
		return c.polyline(s.Points, s.Color, s.Width, s.Opacity)
	}
	c.dc.PushLayer(gg.BlendScreen, 1)
	err := c.polyline(s.Points, s.Color, s.Width, s.Opacity)
	c.dc.PopLayer()
	return err
}

func (c canvas) polyline(pts []tree.Point, color string, width, opacity float64) error {
	if len(pts) < 2 {
		return nil
	}
	col := gg.Hex(color)
	c.dc.SetRGBA(col.R, col.G, col.B, opacity)
	c.dc.SetLineWidth(width * c.scale)
	x, y := c.px(pts[0])
	c.dc.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = c.px(p)
		c.dc.LineTo(x, y)
	}
	if err := c.dc.Stroke(); err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	return nil
}

func (c canvas) node(n tree.Node, dims stroke.Dimensions) error {
	r := tree.RectAround(n.Position(), dims.NodeWidth, dims.NodeHeight)
	x, y := c.px(tree.Point{X: r.MinX, Y: r.MinY})
	w, h := r.Width()*c.scale, r.Height()*c.scale

	c.dc.SetHexColor(defaultNodeFill)
	c.dc.DrawRectangle(x, y, w, h)
	if err := c.dc.Fill(); err != nil {
		return fmt.Errorf("fill node %s: %w", n.ID, err)
	}
	c.dc.SetHexColor(defaultNodeStroke)
	c.dc.SetLineWidth(c.scale)
	c.dc.DrawRectangle(x, y, w, h)
	if err := c.dc.Stroke(); err != nil {
		return fmt.Errorf("outline node %s: %w", n.ID, err)
	}
	return nil
}
