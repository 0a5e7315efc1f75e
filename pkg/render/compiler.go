package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/paths"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/spatial"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Default thresholds.
const (
	DefaultLowThreshold       = 50
	DefaultHighThreshold      = 150
	DefaultCullMinConnections = 200
	DefaultCullMargin         = 200.0
	DefaultStrokeWidth        = 3.0
)

// searchWidthScale widens search strokes.
const searchWidthScale = 1.5

// Options configures a Compiler.
type Options struct {
	// LowThreshold is the highlighted edge count at which glow drops from
	// four layers to two.
	LowThreshold int
	// HighThreshold is the count above which only the core is drawn.
	HighThreshold int
	// CullMinConnections is the edge count from which culling queries the
	// spatial index instead of testing every edge.
	CullMinConnections int
	// CullMargin widens the viewport before culling.
	CullMargin float64

	Dimensions  stroke.Dimensions
	Palettes    stroke.Palettes
	StrokeWidth float64
}

// DefaultOptions returns the standard thresholds, geometry and palettes.
func DefaultOptions() Options {
	return Options{
		LowThreshold:       DefaultLowThreshold,
		HighThreshold:      DefaultHighThreshold,
		CullMinConnections: DefaultCullMinConnections,
		CullMargin:         DefaultCullMargin,
		Dimensions:         stroke.DefaultDimensions(),
		Palettes:           stroke.DefaultPalettes(),
		StrokeWidth:        DefaultStrokeWidth,
	}
}

// TierFor maps a highlighted edge count to a quality tier.
func (o Options) TierFor(count int) QualityTier {
	switch {
	case count < o.LowThreshold:
		return TierFull
	case count <= o.HighThreshold:
		return TierReduced
	default:
		return TierMinimal
	}
}

// WidthFor returns the core stroke width of a highlight type. Search strokes
// are wider so they stay visible on top.
func (o Options) WidthFor(t highlight.Type) float64 {
	if t == highlight.TypeSearch {
		return o.StrokeWidth * searchWidthScale
	}
	return o.StrokeWidth
}

// Input is everything one compilation reads. Nothing is read from ambient
// state.
type Input struct {
	Graph    *tree.Graph
	State    highlight.State
	Resolver *paths.Resolver
	// Index enables index-assisted culling on large trees. Optional.
	Index *spatial.Index
	// Viewport restricts output to edges inside this world-space rectangle.
	// Nil disables culling.
	Viewport *tree.Rect
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *log.Logger) CompilerOption {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// Compiler turns highlight state into frames. It caches edge routes per
// graph version and is not safe for concurrent use.
type Compiler struct {
	opts   Options
	logger *log.Logger

	routes        *stroke.Routes
	routesVersion uint64
	edgeIndex     *spatial.BoxIndex
}

// NewCompiler creates a compiler. Zero-valued options fall back to defaults.
func NewCompiler(opts Options, copts ...CompilerOption) *Compiler {
	def := DefaultOptions()
	if opts.LowThreshold <= 0 {
		opts.LowThreshold = def.LowThreshold
	}
	if opts.HighThreshold <= 0 {
		opts.HighThreshold = def.HighThreshold
	}
	if opts.CullMinConnections <= 0 {
		opts.CullMinConnections = def.CullMinConnections
	}
	if opts.Dimensions.NodeWidth <= 0 || opts.Dimensions.NodeHeight <= 0 {
		opts.Dimensions = def.Dimensions
	}
	if len(opts.Palettes.Primary.Colors) == 0 {
		opts.Palettes = def.Palettes
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = def.StrokeWidth
	}

	c := &Compiler{opts: opts, logger: log.New(io.Discard)}
	for _, o := range copts {
		o(c)
	}
	return c
}

// Options returns the effective options.
func (c *Compiler) Options() Options { return c.opts }

// Routes returns the edge routes of g, rebuilding them when g is a new
// snapshot.
func (c *Compiler) Routes(g *tree.Graph) *stroke.Routes {
	if c.routes == nil || c.routesVersion != g.Version() {
		c.routes = stroke.NewRoutes(g, c.opts.Dimensions)
		c.routesVersion = g.Version()
		c.edgeIndex = nil
	}
	return c.routes
}

// edges returns the bounding-box index over routes, keyed by child id. It
// is built on first use for each graph snapshot and cell size.
func (c *Compiler) edges(routes *stroke.Routes, cellSize float64) *spatial.BoxIndex {
	if c.edgeIndex != nil && c.edgeIndex.CellSize() == cellSize {
		return c.edgeIndex
	}
	idx := spatial.NewBoxIndex(cellSize)
	for _, e := range routes.All() {
		idx.Insert(e.ChildID, e.Bounds())
	}
	c.edgeIndex = idx
	return idx
}

type edgeKey struct{ parent, child string }

type claim struct {
	order int
	h     highlight.Highlight
	chain int
	band  int
	color string
}

// Compile builds the frame for in. It never fails: problems with individual
// highlights become diagnostics.
func (c *Compiler) Compile(in Input) *Frame {
	start := time.Now()
	resolver := in.Resolver
	if resolver == nil {
		resolver = paths.New()
	}

	f := &Frame{Version: in.Graph.Version(), Viewport: in.Viewport}
	f.Stats.Highlights = in.State.Len()
	if in.State.Len() == 0 || in.Graph.Len() == 0 {
		f.Stats.Duration = time.Since(start)
		return f
	}

	routes := c.Routes(in.Graph)

	// Steps 1-2: resolve chains into claimed edges.
	claims := make(map[edgeKey][]claim)
	for order, h := range in.State.All() {
		n := c.claim(f, in.Graph, resolver, order, h, claims)
		if n > 0 {
			f.Stats.Resolved++
		}
	}

	claimed := make(map[string]bool)
	for k := range claims {
		if e, ok := routes.Edge(k.parent, k.child); ok {
			claimed[e.ChildID] = true
		}
	}
	f.Stats.Claimed = len(claimed)
	f.Tier = c.opts.TierFor(len(claimed))

	// Steps 3-4 and 6: walk edges once, optionally culled.
	edges, region := c.candidates(in, routes)
	for _, e := range edges {
		hs := mergeClaims(claims[edgeKey{e.ParentID, e.ChildID}], claims[edgeKey{e.SpouseID, e.ChildID}])
		if len(hs) == 0 {
			continue
		}
		if region != nil && !e.Bounds().Intersects(*region) {
			continue
		}
		f.Segments = append(f.Segments, c.segment(e, hs, f.Tier))
	}

	// Search-topped segments go last.
	slices.SortStableFunc(f.Segments, func(a, b Segment) int {
		return boolCmp(a.Top().Type == highlight.TypeSearch, b.Top().Type == highlight.TypeSearch)
	})

	f.Stats.Segments = len(f.Segments)
	for _, s := range f.Segments {
		if s.Overlapping {
			f.Stats.Overlapping++
		}
	}
	f.Stats.Culled = f.Stats.Claimed - f.Stats.Segments
	f.Stats.Duration = time.Since(start)

	observability.Engine().OnCompile(f.Stats.Segments, f.Stats.Overlapping, f.Tier.String(), f.Stats.Duration)
	c.logger.Debug("compiled frame",
		"highlights", f.Stats.Highlights,
		"segments", f.Stats.Segments,
		"overlapping", f.Stats.Overlapping,
		"tier", f.Tier,
		"culled", f.Stats.Culled)
	return f
}

// claim resolves one highlight and records the edges it claims. It returns
// the number of edges claimed.
func (c *Compiler) claim(f *Frame, g *tree.Graph, r *paths.Resolver, order int, h highlight.Highlight, claims map[edgeKey][]claim) int {
	strategy, ok := stroke.For(h.Type)
	if !ok {
		c.diagnose(f, h.ID, DiagUnknownType, fmt.Sprintf("unknown highlight type %q", h.Type))
		return 0
	}

	if strategy == stroke.StrategyMulti {
		stroke.MultiPath(c.logger, h.Targets)
		c.diagnose(f, h.ID, DiagUnsupported, "multi-path highlights are not rendered")
		return 0
	}
	if len(h.Targets) == 0 || (strategy == stroke.StrategyDual && len(h.Targets) < 2) {
		c.diagnose(f, h.ID, DiagEmptyPath, fmt.Sprintf("%s highlight is missing targets", strategy))
		return 0
	}
	for _, id := range h.Targets {
		if !g.Has(id) {
			c.diagnose(f, h.ID, DiagNodeNotFound, fmt.Sprintf("target %q is not in the tree", id))
			return 0
		}
	}

	var chains [][]string
	var pals []stroke.Palette
	if strategy == stroke.StrategyDual {
		d := r.DualPaths(g, h.Targets[0], h.Targets[1])
		if !d.Found {
			c.logger.Debug("no common ancestor, drawing full chains", "id", h.ID, "a", h.Targets[0], "b", h.Targets[1])
		}
		t := d.Truncated()
		chains = [][]string{t[0], t[1]}
		pals = []stroke.Palette{c.opts.Palettes.Primary, c.opts.Palettes.Secondary}
	} else {
		chains = [][]string{r.Path(g, h.Targets[0])}
		pal := c.opts.Palettes.Primary
		if h.Type == highlight.TypeSearch {
			pal = c.opts.Palettes.Search
		}
		pals = []stroke.Palette{pal}
	}

	n := 0
	for ci, chain := range chains {
		for band := 0; band+1 < len(chain); band++ {
			k := edgeKey{parent: chain[band+1], child: chain[band]}
			claims[k] = append(claims[k], claim{
				order: order,
				h:     h,
				chain: ci,
				band:  band,
				color: pals[ci].At(band),
			})
			n++
		}
	}
	if n == 0 {
		c.diagnose(f, h.ID, DiagEmptyPath, "nothing to draw: target has no placed ancestors")
	}
	return n
}

// candidates returns the edges to inspect and the culling region, if any.
func (c *Compiler) candidates(in Input, routes *stroke.Routes) ([]stroke.Edge, *tree.Rect) {
	if in.Viewport == nil {
		return routes.All(), nil
	}
	region := in.Viewport.Expand(c.opts.CullMargin)
	if in.Index == nil || routes.Len() < c.opts.CullMinConnections {
		return routes.All(), &region
	}
	hits := c.edges(routes, in.Index.CellSize()).Query(region)
	return routes.ForChildren(hits), &region
}

func (c *Compiler) segment(e stroke.Edge, cs []claim, tier QualityTier) Segment {
	slices.SortStableFunc(cs, func(a, b claim) int {
		if pa, pb := a.h.Type.Priority(), b.h.Type.Priority(); pa != pb {
			return pa - pb
		}
		return a.order - b.order
	})

	s := Segment{
		ParentID:   e.ParentID,
		SpouseID:   e.SpouseID,
		ChildID:    e.ChildID,
		Points:     e.Points,
		Tier:       tier,
		Blend:      BlendNormal,
		Highlights: make([]SegmentHighlight, len(cs)),
	}
	colors := make([]string, len(cs))
	for i, cl := range cs {
		s.Highlights[i] = SegmentHighlight{
			HighlightID: cl.h.ID,
			Type:        cl.h.Type,
			Chain:       cl.chain,
			Band:        cl.band,
			Color:       cl.color,
			Opacity:     1,
			Width:       c.opts.WidthFor(cl.h.Type),
		}
		colors[i] = cl.color
	}

	if len(cs) > 1 {
		s.Overlapping = true
		s.Blend = BlendAdditive
		s.BlendedColor = stroke.Additive(colors...)
	} else {
		s.BlendedColor = colors[0]
	}
	return s
}

func (c *Compiler) diagnose(f *Frame, id, code, msg string) {
	f.Diagnostics = append(f.Diagnostics, Diagnostic{HighlightID: id, Code: code, Message: msg})
	c.logger.Warn("highlight skipped", "id", id, "code", code, "reason", msg)
	observability.Engine().OnHighlightSkipped(strings.ToLower(code))
}

// mergeClaims joins the claims made through either parent of a couple,
// keeping one claim per highlight.
func mergeClaims(a, b []claim) []claim {
	if len(b) == 0 {
		return slices.Clone(a)
	}
	out := slices.Clone(a)
	for _, cl := range b {
		if !slices.ContainsFunc(out, func(x claim) bool { return x.h.ID == cl.h.ID }) {
			out = append(out, cl)
		}
	}
	return out
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
