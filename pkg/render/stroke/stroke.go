package stroke

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/paths"
	"github.com/matzehuels/kintree/pkg/tree"
)

// =============================================================================
// Quality tiers and blending
// =============================================================================

// Tier is the level of detail of highlighted strokes.
type Tier int

const (
	TierFull    Tier = iota // outer, middle and inner glow plus core
	TierReduced             // one glow plus core
	TierMinimal             // core only
)

// Layers returns the number of strokes drawn per highlighted edge.
func (t Tier) Layers() int {
	switch t {
	case TierFull:
		return 4
	case TierReduced:
		return 2
	default:
		return 1
	}
}

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierReduced:
		return "reduced"
	case TierMinimal:
		return "minimal"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "full":
		*t = TierFull
	case "reduced":
		*t = TierReduced
	case "minimal":
		*t = TierMinimal
	default:
		return fmt.Errorf("unknown tier %q", b)
	}
	return nil
}

// Blend is how a stroke combines with what is already drawn.
type Blend int

const (
	BlendNormal   Blend = iota // source-over
	BlendAdditive              // colours sum where strokes overlap
)

func (b Blend) String() string {
	if b == BlendAdditive {
		return "additive"
	}
	return "normal"
}

// MarshalText implements encoding.TextMarshaler.
func (b Blend) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Blend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*b = BlendNormal
	case "additive":
		*b = BlendAdditive
	default:
		return fmt.Errorf("unknown blend %q", text)
	}
	return nil
}

// =============================================================================
// Strokes
// =============================================================================

// Layer names one stroke in a glow stack.
type Layer string

const (
	LayerOuter  Layer = "outer"
	LayerMiddle Layer = "middle"
	LayerInner  Layer = "inner"
	LayerCore   Layer = "core"
)

// Stroke is one polyline drawing instruction.
type Stroke struct {
	HighlightID string       `json:"highlight_id,omitempty"`
	ParentID    string       `json:"parent_id,omitempty"`
	ChildID     string       `json:"child_id,omitempty"`
	Points      []tree.Point `json:"points"`
	Color       string       `json:"color"`
	Width       float64      `json:"width"`
	Opacity     float64      `json:"opacity"`
	Layer       Layer        `json:"layer"`
	Blend       Blend        `json:"blend"`
}

type layerSpec struct {
	layer   Layer
	width   float64
	opacity float64
}

var (
	fullStack    = []layerSpec{{LayerOuter, 4, 0.12}, {LayerMiddle, 2.6, 0.25}, {LayerInner, 1.7, 0.5}, {LayerCore, 1, 1}}
	reducedStack = []layerSpec{{LayerMiddle, 2.6, 0.3}, {LayerCore, 1, 1}}
	minimalStack = []layerSpec{{LayerCore, 1, 1}}
)

// Layers returns the glow stack for one edge, widest first. Glow widths and
// opacities scale from the core width; the core is always fully opaque.
func Layers(t Tier, points []tree.Point, width float64, color string) []Stroke {
	stack := minimalStack
	switch t {
	case TierFull:
		stack = fullStack
	case TierReduced:
		stack = reducedStack
	}
	out := make([]Stroke, len(stack))
	for i, s := range stack {
		out[i] = Stroke{
			Points:  points,
			Color:   color,
			Width:   width * s.width,
			Opacity: s.opacity,
			Layer:   s.layer,
		}
	}
	return out
}

// =============================================================================
// Strategies
// =============================================================================

// Strategy is the renderer used for a highlight type.
type Strategy int

const (
	StrategySingle Strategy = iota
	StrategyDual
	StrategyMulti
)

func (s Strategy) String() string {
	switch s {
	case StrategyDual:
		return "dual"
	case StrategyMulti:
		return "multi"
	default:
		return "single"
	}
}

// For returns the strategy of t. Unknown types fall back to StrategySingle
// and report false so callers can warn.
func For(t highlight.Type) (Strategy, bool) {
	switch t.Kind() {
	case highlight.KindSingle:
		return StrategySingle, true
	case highlight.KindDual:
		return StrategyDual, true
	case highlight.KindMulti:
		return StrategyMulti, true
	default:
		return StrategySingle, false
	}
}

// Style is the per-call drawing style of a path.
type Style struct {
	Tier  Tier
	Width float64
}

// SinglePath strokes a chain ordered from target to ancestor. Each edge is
// one depth band: band 0 joins the target to its parent. Edges missing from
// routes are skipped.
func SinglePath(routes *Routes, path []string, pal Palette, st Style) []Stroke {
	if len(path) < 2 {
		return nil
	}
	out := make([]Stroke, 0, (len(path)-1)*st.Tier.Layers())
	for band := 0; band+1 < len(path); band++ {
		child, parent := path[band], path[band+1]
		e, ok := routes.Edge(parent, child)
		if !ok {
			continue
		}
		for _, s := range Layers(st.Tier, e.Points, st.Width, pal.At(band)) {
			s.ParentID, s.ChildID = e.ParentID, e.ChildID
			out = append(out, s)
		}
	}
	return out
}

// DualPath strokes both chains of d independently, the first with pals[0] and
// the second with pals[1]. Chains stop at the common ancestor when there is
// one; no marker is drawn there.
func DualPath(routes *Routes, d paths.Dual, pals [2]Palette, st Style) []Stroke {
	chains := d.Truncated()
	out := SinglePath(routes, chains[0], pals[0], st)
	return append(out, SinglePath(routes, chains[1], pals[1], st)...)
}

// MultiPath is reserved for N-way convergence such as sibling groups. It
// draws nothing.
func MultiPath(logger *log.Logger, targets []string) []Stroke {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger.Debug("multi-path rendering not implemented", "targets", len(targets))
	return nil
}
