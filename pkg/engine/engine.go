// Package engine wires the visualization core into the API collaborators
// call: a graph snapshot goes in, highlight requests mutate the registry
// state, and frames, paths and camera transforms come out.
//
// An Engine owns the only mutable state of the core (the active highlight
// set) together with the caches derived from the current snapshot. It is not
// safe for concurrent use; servers serialize access with a mutex.
package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/paths"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/spatial"
	"github.com/matzehuels/kintree/pkg/tree"
	"github.com/matzehuels/kintree/pkg/viewport"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine and its compiler.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator replaces the highlight id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.registry.NewID = fn }
}

// Engine is the collaborator-facing facade of the visualization core.
type Engine struct {
	cfg      *config.Config
	logger   *log.Logger
	registry highlight.Registry
	state    highlight.State

	graph    *tree.Graph
	index    *spatial.Index
	resolver *paths.Resolver
	compiler *render.Compiler
}

// New creates an engine with an empty graph. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = paths.New(paths.WithParentPreference(cfg.ParentPreference()))
	e.compiler = render.NewCompiler(cfg.RenderOptions(), render.WithLogger(e.logger))
	e.SetGraph(nil)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// =============================================================================
// Graph
// =============================================================================

// SetGraph replaces the node graph snapshot. The spatial index is rebuilt
// wholesale and cached paths are dropped; active highlights are kept and
// re-resolved against the new layout on the next render.
func (e *Engine) SetGraph(g *tree.Graph) {
	if g == nil {
		g = &tree.Graph{}
	}
	e.graph = g
	e.index = spatial.Build(g, e.cfg.Spatial.CellSize)
	e.resolver.Invalidate()
	e.logger.Debug("graph replaced", "nodes", g.Len(), "connections", len(g.Connections()), "version", g.Version())
}

// Graph returns the current snapshot. It is never nil.
func (e *Engine) Graph() *tree.Graph { return e.graph }

// Index returns the spatial index of the current snapshot.
func (e *Engine) Index() *spatial.Index { return e.index }

// =============================================================================
// Highlights
// =============================================================================

// Capacity returns the maximum number of active highlights.
func (e *Engine) Capacity() int { return e.cfg.Highlights.Capacity }

// AddHighlight validates def and activates it, returning the new id. On
// failure the id is empty and the active set is unchanged. Errors carry a
// code: CAPACITY_EXCEEDED, INVALID_HIGHLIGHT or NODE_NOT_FOUND.
func (e *Engine) AddHighlight(def highlight.Definition) (string, error) {
	if err := e.checkAdd(def); err != nil {
		e.reject(def, err)
		return "", err
	}
	next, id, err := e.registry.TryAdd(e.state, def)
	if err != nil {
		e.reject(def, err)
		return "", err
	}
	e.state = next
	e.logger.Debug("highlight added", "id", id, "type", def.Type, "targets", def.Targets)
	return id, nil
}

func (e *Engine) checkAdd(def highlight.Definition) error {
	if e.state.Len() >= e.Capacity() {
		return &errors.CapacityError{Limit: e.Capacity()}
	}
	if err := def.Validate(); err != nil {
		return err
	}
	for _, id := range def.Targets {
		if !e.graph.Has(id) {
			return errors.New(errors.ErrCodeNodeNotFound, "node %q not in tree", id)
		}
	}
	return nil
}

func (e *Engine) reject(def highlight.Definition, err error) {
	code := string(errors.GetCode(err))
	observability.Engine().OnHighlightRejected(code)
	e.logger.Debug("highlight rejected", "type", def.Type, "code", code, "err", err)
}

// RemoveHighlight deactivates id and reports whether it was active.
func (e *Engine) RemoveHighlight(id string) bool {
	if !e.state.Contains(id) {
		return false
	}
	e.state = e.registry.Remove(e.state, id)
	return true
}

// ClearHighlights deactivates every highlight.
func (e *Engine) ClearHighlights() {
	e.state = e.registry.Clear(e.state)
}

// Highlights returns the active highlight state.
func (e *Engine) Highlights() highlight.State { return e.state }

// ReplaceHighlights swaps the active set for defs, as when a new search
// supersedes the previous one. Definitions are added in order; the first
// failure restores the previous set and is returned.
func (e *Engine) ReplaceHighlights(defs []highlight.Definition) ([]string, error) {
	prev := e.state
	e.state = highlight.State{}
	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		id, err := e.AddHighlight(def)
		if err != nil {
			e.state = prev
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// =============================================================================
// Rendering
// =============================================================================

// RenderData compiles the active highlights against the current graph. A
// nil viewport disables culling.
func (e *Engine) RenderData(vp *tree.Rect) *render.Frame {
	return e.compiler.Compile(render.Input{
		Graph:    e.graph,
		State:    e.state,
		Resolver: e.resolver,
		Index:    e.index,
		Viewport: vp,
	})
}

// Strokes expands a compiled frame into drawing instructions.
func (e *Engine) Strokes(f *render.Frame) []stroke.Stroke { return render.Strokes(f) }

// PathStrokes draws one active highlight on its own, dispatching on its
// type. The tier follows the number of edges the highlight covers.
func (e *Engine) PathStrokes(id string) ([]stroke.Stroke, error) {
	h, ok := e.state.Get(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "highlight %q not active", id)
	}
	opts := e.compiler.Options()
	routes := e.compiler.Routes(e.graph)
	pals := opts.Palettes

	strategy, known := stroke.For(h.Type)
	if !known {
		e.logger.Warn("unknown highlight type, drawing as single path", "id", id, "type", h.Type)
	}

	switch strategy {
	case stroke.StrategyDual:
		d := e.resolver.DualPaths(e.graph, h.Targets[0], h.Targets[1])
		chains := d.Truncated()
		st := stroke.Style{Tier: opts.TierFor(edges(chains[0]) + edges(chains[1])), Width: opts.WidthFor(h.Type)}
		return stroke.DualPath(routes, d, [2]stroke.Palette{pals.Primary, pals.Secondary}, st), nil
	case stroke.StrategyMulti:
		return stroke.MultiPath(e.logger, h.Targets), nil
	default:
		if len(h.Targets) == 0 {
			return nil, nil
		}
		p := e.resolver.Path(e.graph, h.Targets[0])
		pal := pals.Primary
		if h.Type == highlight.TypeSearch {
			pal = pals.Search
		}
		st := stroke.Style{Tier: opts.TierFor(edges(p)), Width: opts.WidthFor(h.Type)}
		return stroke.SinglePath(routes, p, pal, st), nil
	}
}

func edges(path []string) int {
	if len(path) < 2 {
		return 0
	}
	return len(path) - 1
}

// =============================================================================
// Paths
// =============================================================================

// DualResult is the raw outcome of a dual path lookup.
type DualResult struct {
	Paths        [2][]tree.Node
	Intersection *tree.Node // nil when the chains never meet
}

// CalculatePath returns the nodes from id up to its farthest ancestor. An
// unknown id yields an empty slice.
func (e *Engine) CalculatePath(id string) []tree.Node {
	return paths.Nodes(e.graph, e.resolver.Path(e.graph, id))
}

// CalculateDualPaths returns both ancestor chains and their nearest common
// ancestor.
func (e *Engine) CalculateDualPaths(a, b string) DualResult {
	d := e.resolver.DualPaths(e.graph, a, b)
	res := DualResult{Paths: [2][]tree.Node{
		paths.Nodes(e.graph, d.Paths[0]),
		paths.Nodes(e.graph, d.Paths[1]),
	}}
	if d.Found {
		if n, ok := e.graph.Node(d.Intersection); ok {
			res.Intersection = &n
		}
	}
	return res
}

// =============================================================================
// Viewport
// =============================================================================

// ZoomToFit returns the camera that shows bounds within vp under the
// configured zoom limits.
func (e *Engine) ZoomToFit(bounds tree.Rect, vp viewport.Size) viewport.Transform {
	return viewport.ZoomToFit(bounds, vp, e.cfg.ViewportConfig())
}

// CenterOn returns the camera centered on one person's card.
func (e *Engine) CenterOn(id string, vp viewport.Size) (viewport.Transform, error) {
	n, ok := e.graph.Node(id)
	if !ok {
		return viewport.Transform{}, errors.New(errors.ErrCodeNodeNotFound, "node %q not in tree", id)
	}
	c := viewport.NewController(e.cfg.ViewportConfig(), vp)
	return c.CenterOn(n, e.cfg.Geometry.NodeHeight), nil
}

// Fit returns the camera that shows the whole tree, or false when the tree
// is empty.
func (e *Engine) Fit(vp viewport.Size) (viewport.Transform, bool) {
	b, ok := e.graph.Bounds()
	if !ok {
		return viewport.Transform{}, false
	}
	w, h := e.cfg.Geometry.NodeWidth/2, e.cfg.Geometry.NodeHeight/2
	b = tree.Rect{MinX: b.MinX - w, MinY: b.MinY - h, MaxX: b.MaxX + w, MaxY: b.MaxY + h}
	return e.ZoomToFit(b, vp), true
}
