// Package stroke turns ancestry chains into layered stroke geometry.
//
// # Routing
//
// Every parent-to-child edge follows the same three-segment route: a vertical
// drop from the parent (or the midpoint of a couple), a horizontal bus at
// [BusY], and a vertical rise into the child. [ConnectionRoutes] and [Routes]
// apply the rule to a whole tree so highlighted strokes sit exactly on top of
// the base edges.
//
// # Layers
//
// A highlighted edge is drawn as up to four strokes, from the widest and most
// transparent outer glow to a crisp, fully opaque core. The number of layers
// comes from the quality [Tier]: dense highlight sets drop glow layers to keep
// the frame cheap.
//
// # Strategies
//
// Highlight types map to a [Strategy] with [For]. Single-path highlights use
// [SinglePath], dual-path highlights use [DualPath] with one palette per
// chain, and multi-path highlights are reserved: [MultiPath] logs and draws
// nothing.
package stroke
