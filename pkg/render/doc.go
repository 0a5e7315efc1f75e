// Package render compiles active highlights into a draw list.
//
// # Overview
//
// A [Compiler] takes a tree snapshot, the highlight state and an optional
// viewport, and produces a [Frame]: the ordered set of highlighted
// parent-to-child [Segment]s with colours, blend mode and quality tier
// resolved. The frame is everything a drawing surface needs; the sinks in the
// [sink] subpackage turn it into SVG, PNG, JSON or DOT.
//
// # Compilation
//
//  1. Resolve every highlight's chain(s) through a [paths.Resolver].
//  2. Turn chains into claimed edges, each tagged with its depth band and
//     colour. Dual chains are cut at their common ancestor.
//  3. Walk the connection list once and collect the highlights claiming each
//     edge.
//  4. Mark edges claimed by two or more highlights as overlapping; they are
//     drawn with additive blending.
//  5. Pick a [QualityTier] from the number of highlighted edges.
//  6. Optionally cull edges outside the viewport, using the spatial index on
//     large trees.
//
// Failures are local. A highlight of unknown type, or one whose target is
// gone, is dropped with a [Diagnostic] and never stops the rest.
//
// # Ordering
//
// Highlights on a segment are ordered by type priority, then insertion.
// Segments topped by a search highlight are emitted last so search results
// are always drawn over everything else.
package render
