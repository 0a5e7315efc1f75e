package viewport

import (
	"github.com/matzehuels/kintree/pkg/tree"
)

// Controller tracks the current camera and turns pan and pinch gestures into
// clamped transforms.
type Controller struct {
	cfg  Config
	size Size
	t    Transform
}

// NewController starts at scale 1 (clamped) with the world origin in the
// top-left corner.
func NewController(cfg Config, size Size) *Controller {
	return &Controller{
		cfg:  cfg,
		size: size,
		t:    Transform{Scale: Clamp(1, cfg.MinZoom, cfg.MaxZoom)},
	}
}

// Transform returns the current camera.
func (c *Controller) Transform() Transform { return c.t }

// Size returns the viewport size.
func (c *Controller) Size() Size { return c.size }

// Resize changes the viewport size, keeping the world point at the center
// of the old viewport centered.
func (c *Controller) Resize(size Size) {
	center := c.t.ToWorld(tree.Point{X: c.size.Width / 2, Y: c.size.Height / 2})
	c.size = size
	c.t.X = size.Width/2 - center.X*c.t.Scale
	c.t.Y = size.Height/2 - center.Y*c.t.Scale
}

// Set replaces the camera. The scale is clamped into the zoom limits.
func (c *Controller) Set(t Transform) {
	t.Scale = Clamp(t.Scale, c.cfg.MinZoom, c.cfg.MaxZoom)
	c.t = t
}

// Pan moves the camera by dx, dy screen pixels.
func (c *Controller) Pan(dx, dy float64) {
	c.t.X += dx
	c.t.Y += dy
}

// ZoomAt scales by factor around a screen-space focus point; the world point
// under the focus stays put. The resulting scale is clamped.
func (c *Controller) ZoomAt(factor float64, focus tree.Point) {
	if factor <= 0 {
		return
	}
	world := c.t.ToWorld(focus)
	scale := Clamp(c.t.Scale*factor, c.cfg.MinZoom, c.cfg.MaxZoom)
	c.t = Transform{
		X:     focus.X - world.X*scale,
		Y:     focus.Y - world.Y*scale,
		Scale: scale,
	}
}

// Visible returns the world-space rectangle currently on screen.
func (c *Controller) Visible() tree.Rect {
	tl := c.t.ToWorld(tree.Point{})
	br := c.t.ToWorld(tree.Point{X: c.size.Width, Y: c.size.Height})
	return tree.Rect{MinX: tl.X, MinY: tl.Y, MaxX: br.X, MaxY: br.Y}
}

// FitTo zooms to show bounds.
func (c *Controller) FitTo(bounds tree.Rect) Transform {
	c.t = ZoomToFit(bounds, c.size, c.cfg)
	return c.t
}

// CenterOn zooms to a single node card of the given height.
func (c *Controller) CenterOn(n tree.Node, nodeHeight float64) Transform {
	return c.FitTo(tree.RectAround(n.Position(), c.cfg.NodeWidth, nodeHeight))
}
