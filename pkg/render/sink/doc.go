// Package sink turns a compiled [render.Frame] into output artifacts.
//
// # Overview
//
// The compiler produces a draw list; a "sink" paints it. This package
// provides:
//
//   - SVG: vector output with base edges, node cards and glow strokes
//   - PNG: raster output drawn with gogpu/gg, no external tools required
//   - JSON: the frame itself, for clients that draw on their own canvas
//   - DOT: a Graphviz description of the tree with highlighted edges coloured
//
// # SVG Output
//
// [RenderSVG] draws in three groups: base edges, highlight strokes, then
// node cards, so glows sit under the cards they connect. Strokes of
// overlapping segments carry mix-blend-mode plus-lighter, which sums
// colours the same way [stroke.Additive] does.
//
//	svg := sink.RenderSVG(g, frame,
//	    sink.WithDimensions(dims),
//	    sink.WithPadding(40),
//	)
//
// # PNG Output
//
// [RenderPNG] rasterizes the same scene. Additive strokes are drawn inside a
// screen-blended layer, the closest compositing mode gg offers.
//
// # Formats
//
// [ValidateFormat] checks a user-supplied format name against [Formats].
package sink
