// Package viewport computes pan and zoom transforms for the tree canvas.
//
// World coordinates are layout units; screen coordinates are pixels. A
// [Transform] maps world to screen as screen = world*Scale + (X, Y).
//
// Zoom is bounded twice. A readability floor, derived from the rendered
// width of a node card, keeps "fit" from zooming out so far that names become
// unreadable. The global [Config.MinZoom] and [Config.MaxZoom] limits always
// win over the floor.
package viewport

import (
	"math"

	"github.com/matzehuels/kintree/pkg/tree"
)

// Size is a viewport size in screen pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform maps world to screen coordinates.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// ToScreen maps a world point to screen pixels.
func (t Transform) ToScreen(p tree.Point) tree.Point {
	return tree.Point{X: p.X*t.Scale + t.X, Y: p.Y*t.Scale + t.Y}
}

// ToWorld maps a screen point to world coordinates.
func (t Transform) ToWorld(p tree.Point) tree.Point {
	return tree.Point{X: (p.X - t.X) / t.Scale, Y: (p.Y - t.Y) / t.Scale}
}

// Config holds zoom limits and the readability policy.
type Config struct {
	MinZoom float64 `toml:"min_zoom" json:"min_zoom"`
	MaxZoom float64 `toml:"max_zoom" json:"max_zoom"`
	// Padding is added around fitted bounds, in world units.
	Padding float64 `toml:"padding" json:"padding"`
	// LegiblePx is the on-screen node width at which cards become readable.
	LegiblePx float64 `toml:"legible_px" json:"legible_px"`
	// ReadabilityBuffer is the margin, in percent, added on top of the
	// legibility threshold.
	ReadabilityBuffer float64 `toml:"readability_buffer" json:"readability_buffer"`
	// NodeWidth is the node card width in world units.
	NodeWidth float64 `toml:"-" json:"node_width"`
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MinZoom:           0.05,
		MaxZoom:           4,
		Padding:           80,
		LegiblePx:         48,
		ReadabilityBuffer: 20,
		NodeWidth:         120,
	}
}

// Clamp saturates v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// FitToViewScale returns the largest scale at which bounds, grown by padding
// on every side, fit entirely inside vp. Zero-area padded bounds return +Inf;
// a zero extent on one axis leaves the other axis to decide.
func FitToViewScale(bounds tree.Rect, vp Size, padding float64) float64 {
	b := bounds.Expand(padding)
	sx, sy := math.Inf(1), math.Inf(1)
	if w := b.Width(); w > 0 {
		sx = vp.Width / w
	}
	if h := b.Height(); h > 0 {
		sy = vp.Height / h
	}
	return math.Min(sx, sy)
}

// MinScaleForReadability returns the scale at which a node card is rendered
// LegiblePx wide, plus bufferPercent so the threshold is comfortably crossed.
// A config without node width has no floor.
func MinScaleForReadability(bufferPercent float64, cfg Config) float64 {
	if cfg.NodeWidth <= 0 || cfg.LegiblePx <= 0 {
		return 0
	}
	return cfg.LegiblePx / cfg.NodeWidth * (1 + bufferPercent/100)
}

// ZoomToFit centers bounds in vp at the larger of the fit scale and the
// readability floor, clamped into [MinZoom, MaxZoom].
func ZoomToFit(bounds tree.Rect, vp Size, cfg Config) Transform {
	fit := FitToViewScale(bounds, vp, cfg.Padding)
	floor := MinScaleForReadability(cfg.ReadabilityBuffer, cfg)
	scale := Clamp(math.Max(fit, floor), cfg.MinZoom, cfg.MaxZoom)
	return FitToViewTransform(bounds, vp, scale)
}

// FitToViewTransform returns the transform that shows the center of bounds
// at the center of vp with the given scale.
func FitToViewTransform(bounds tree.Rect, vp Size, scale float64) Transform {
	c := BoundsCenter(bounds)
	return Transform{
		X:     vp.Width/2 - c.X*scale,
		Y:     vp.Height/2 - c.Y*scale,
		Scale: scale,
	}
}

// BoundsCenter returns the midpoint of bounds.
func BoundsCenter(bounds tree.Rect) tree.Point { return bounds.Center() }

// NodesBounds returns the bounding box of node centers. No nodes means no
// bounds; it never returns a degenerate rectangle in that case.
func NodesBounds(nodes []tree.Node) (tree.Rect, bool) {
	pts := make([]tree.Point, len(nodes))
	for i, n := range nodes {
		pts[i] = n.Position()
	}
	return tree.BoundsOf(pts...)
}
