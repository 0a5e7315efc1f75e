// Package pkg provides the core libraries for kintree ancestry visualization.
//
// # Overview
//
// Kintree draws family trees that an external layout stage has already
// positioned, and emphasizes ancestry chains on top of them. Chains are
// requested as highlights, resolved against the tree, merged where they
// share edges, and handed to a renderer as stroke instructions.
//
// # Architecture
//
// The typical data flow:
//
//	Positioned tree document
//	         ↓
//	    [tree] package (immutable snapshot + geometry)
//	         ↓
//	    [spatial] package (viewport queries)  [paths] package (ancestor walks)
//	         ↓
//	    [highlight] package (active highlight state)
//	         ↓
//	    [render] package (segments, quality tier, culling)
//	         ↓
//	    [render/sink] package (SVG/PNG/JSON/DOT output)
//
// [engine] ties these together behind one facade; [pipeline] adds caching
// for batch rendering.
//
// # Quick Start
//
//	e, _ := engine.New(config.Default())
//	e.SetGraph(g)
//	id, err := e.AddHighlight(highlight.Definition{
//	    Type:    highlight.TypeLineage,
//	    Targets: []string{"p42"},
//	})
//	frame := e.RenderData(nil)
//	svg := sink.RenderSVG(e.Graph(), frame)
package pkg
