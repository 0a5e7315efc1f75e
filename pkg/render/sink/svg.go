package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
)

const labelFontSize = 14.0

// SVGOption configures SVG rendering.
type SVGOption func(*sceneOptions)

// WithDimensions sets the node card size used for cards and edge anchors.
func WithDimensions(d stroke.Dimensions) SVGOption { return func(o *sceneOptions) { o.dims = d } }

// WithPadding sets the margin around the drawn tree when no viewport is set.
func WithPadding(p float64) SVGOption { return func(o *sceneOptions) { o.padding = p } }

// WithBackground sets the canvas fill colour.
func WithBackground(c string) SVGOption { return func(o *sceneOptions) { o.background = c } }

// WithoutLabels omits node names from the cards.
func WithoutLabels() SVGOption { return func(o *sceneOptions) { o.labels = false } }

// WithViewport crops output to r, overriding the frame's viewport.
func WithViewport(r tree.Rect) SVGOption { return func(o *sceneOptions) { o.viewport = &r } }

// WithStrokes draws ss on top of the frame's own strokes.
func WithStrokes(ss []stroke.Stroke) SVGOption {
	return func(o *sceneOptions) { o.extra = ss }
}

func newSceneOptions(opts ...SVGOption) sceneOptions {
	o := defaultSceneOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RenderSVG draws g with the highlights compiled into f. A nil frame draws
// the bare tree.
func RenderSVG(g *tree.Graph, f *render.Frame, opts ...SVGOption) []byte {
	o := newSceneOptions(opts...)
	view := o.bounds(g, f)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		view.MinX, view.MinY, view.Width(), view.Height(), view.Width(), view.Height())
	fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		view.MinX, view.MinY, view.Width(), view.Height(), escapeXML(o.background))

	buf.WriteString(`  <g class="edges" fill="none">` + "\n")
	for _, e := range o.visibleEdges(g, view) {
		fmt.Fprintf(&buf, `    <polyline points="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
			points(e.Points), defaultEdgeColor, baseEdgeWidth)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="highlights" fill="none" stroke-linecap="round" stroke-linejoin="round">` + "\n")
	for _, s := range o.strokes(f) {
		renderStroke(&buf, s)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, n := range o.visibleNodes(g, view) {
		renderNode(&buf, o, n)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderStroke(buf *bytes.Buffer, s stroke.Stroke) {
	blend := ""
	if s.Blend == stroke.BlendAdditive {
		blend = ` style="mix-blend-mode:plus-lighter"`
	}
	fmt.Fprintf(buf, `    <polyline class="hl-%s" data-highlight="%s" points="%s" stroke="%s" stroke-width="%.2f" stroke-opacity="%.2f"%s/>`+"\n",
		s.Layer, escapeXML(s.HighlightID), points(s.Points), escapeXML(s.Color), s.Width, s.Opacity, blend)
}

func renderNode(buf *bytes.Buffer, o sceneOptions, n tree.Node) {
	r := tree.RectAround(n.Position(), o.dims.NodeWidth, o.dims.NodeHeight)
	class := "node"
	if n.HasPhoto {
		class += " has-photo"
	}
	fmt.Fprintf(buf, `    <rect id="node-%s" class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s"/>`+"\n",
		escapeXML(n.ID), class, r.MinX, r.MinY, r.Width(), r.Height(), defaultNodeFill, defaultNodeStroke)
	if !o.labels {
		return
	}
	text := truncate(label(n), o.dims.NodeWidth-12, labelFontSize)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="%.0f" fill="%s">%s</text>`+"\n",
		n.X, n.Y, labelFontSize, defaultTextColor, escapeXML(text))
}

func points(pts []tree.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
