package engine

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
	"github.com/matzehuels/kintree/pkg/tree/treetest"
	"github.com/matzehuels/kintree/pkg/viewport"
)

func newEngine(t *testing.T, capacity int) *Engine {
	t.Helper()
	cfg := config.Default()
	if capacity > 0 {
		cfg.Highlights.Capacity = capacity
	}
	n := 0
	e, err := New(cfg, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("h%d", n)
	}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	e.SetGraph(treetest.Family())
	return e
}

func lineage(id string) highlight.Definition {
	return highlight.Definition{Type: highlight.TypeLineage, Targets: []string{id}}
}

func ids(path []tree.Node) []string {
	out := make([]string, len(path))
	for i, n := range path {
		out[i] = n.ID
	}
	return out
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Highlights.Capacity = 0
	if _, err := New(cfg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New() error = %v, want INVALID_CONFIG", err)
	}
}

func TestNewDefaults(t *testing.T) {
	e, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error: %v", err)
	}
	if e.Graph() == nil || e.Graph().Len() != 0 {
		t.Errorf("Graph() = %v, want empty non-nil graph", e.Graph())
	}
	if !e.RenderData(nil).Empty() {
		t.Error("RenderData() on empty engine should be empty")
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	e := newEngine(t, 0)
	if _, err := e.AddHighlight(lineage("a1")); err != nil {
		t.Fatal(err)
	}
	before := e.Highlights().IDs()

	id, err := e.AddHighlight(lineage("b1x"))
	if err != nil || id == "" {
		t.Fatalf("AddHighlight() = %q, %v", id, err)
	}
	if !e.RemoveHighlight(id) {
		t.Fatalf("RemoveHighlight(%q) = false, want true", id)
	}
	if got := e.Highlights().IDs(); !slices.Equal(got, before) {
		t.Errorf("IDs() = %v, want %v", got, before)
	}
	if e.RemoveHighlight(id) {
		t.Error("second RemoveHighlight() = true, want false")
	}
}

func TestAddHighlightCapacity(t *testing.T) {
	e := newEngine(t, 2)
	for _, id := range []string{"a1", "a2"} {
		if _, err := e.AddHighlight(lineage(id)); err != nil {
			t.Fatal(err)
		}
	}

	id, err := e.AddHighlight(lineage("b1"))
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Errorf("error = %v, want CAPACITY_EXCEEDED", err)
	}
	if got := e.Highlights().Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestAddHighlightRejections(t *testing.T) {
	tests := []struct {
		name string
		def  highlight.Definition
		code errors.Code
	}{
		{"absent target", lineage("nobody"), errors.ErrCodeNodeNotFound},
		{"absent second target", highlight.Definition{Type: highlight.TypeCousinMarriage, Targets: []string{"a1", "zz"}}, errors.ErrCodeNodeNotFound},
		{"unknown type", highlight.Definition{Type: "aura", Targets: []string{"a1"}}, errors.ErrCodeInvalidHighlight},
		{"dual with one target", highlight.Definition{Type: highlight.TypeRelationship, Targets: []string{"a1"}}, errors.ErrCodeInvalidHighlight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 0)
			id, err := e.AddHighlight(tt.def)
			if id != "" {
				t.Errorf("id = %q, want empty", id)
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
			if got := e.Highlights().Len(); got != 0 {
				t.Errorf("Len() = %d, want 0", got)
			}
		})
	}
}

type rejectHooks struct {
	observability.NoopEngineHooks
	codes []string
}

func (h *rejectHooks) OnHighlightRejected(code string) { h.codes = append(h.codes, code) }

func TestAddHighlightRejectHook(t *testing.T) {
	hooks := &rejectHooks{}
	observability.SetEngineHooks(hooks)
	t.Cleanup(observability.Reset)

	e := newEngine(t, 1)
	_, _ = e.AddHighlight(lineage("nobody"))
	_, _ = e.AddHighlight(lineage("a1"))
	_, _ = e.AddHighlight(lineage("a2"))

	want := []string{"NODE_NOT_FOUND", "CAPACITY_EXCEEDED"}
	if !slices.Equal(hooks.codes, want) {
		t.Errorf("rejected codes = %v, want %v", hooks.codes, want)
	}
}

func TestReplaceHighlights(t *testing.T) {
	e := newEngine(t, 0)
	_, _ = e.AddHighlight(highlight.Definition{Type: highlight.TypeSearch, Targets: []string{"a1"}})
	prev := e.Highlights().IDs()

	if _, err := e.ReplaceHighlights([]highlight.Definition{lineage("b1"), lineage("missing")}); err == nil {
		t.Fatal("ReplaceHighlights() with a bad definition should fail")
	}
	if got := e.Highlights().IDs(); !slices.Equal(got, prev) {
		t.Errorf("after failed replace IDs() = %v, want %v", got, prev)
	}

	got, err := e.ReplaceHighlights([]highlight.Definition{lineage("b1"), lineage("a2")})
	if err != nil {
		t.Fatalf("ReplaceHighlights() error: %v", err)
	}
	if !slices.Equal(e.Highlights().IDs(), got) || len(got) != 2 {
		t.Errorf("IDs() = %v, want %v", e.Highlights().IDs(), got)
	}

	e.ClearHighlights()
	if e.Highlights().Len() != 0 {
		t.Error("ClearHighlights() left highlights behind")
	}
}

func TestCalculatePath(t *testing.T) {
	e := newEngine(t, 0)
	g := e.Graph()
	for _, n := range g.Nodes() {
		if got := len(e.CalculatePath(n.ID)); got != n.Depth+1 {
			t.Errorf("len(CalculatePath(%s)) = %d, want %d", n.ID, got, n.Depth+1)
		}
	}
	if got := ids(e.CalculatePath("a1x")); !slices.Equal(got, []string{"a1x", "a1", "a", "g"}) {
		t.Errorf("CalculatePath(a1x) = %v", got)
	}
	if got := e.CalculatePath("nobody"); len(got) != 0 {
		t.Errorf("CalculatePath(nobody) = %v, want empty", got)
	}
}

func TestCalculateDualPaths(t *testing.T) {
	e := newEngine(t, 0)
	tests := []struct {
		a, b string
		want string
	}{
		{"a1", "a2", "a"},
		{"a1x", "a1x", "a1x"},
		{"a1x", "b1x", "g"},
		{"a1", "nobody", ""},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			res := e.CalculateDualPaths(tt.a, tt.b)
			got := ""
			if res.Intersection != nil {
				got = res.Intersection.ID
			}
			if got != tt.want {
				t.Errorf("intersection = %q, want %q", got, tt.want)
			}
			if len(res.Paths[0]) == 0 || res.Paths[0][0].ID != tt.a {
				t.Errorf("Paths[0] = %v, want to start at %s", ids(res.Paths[0]), tt.a)
			}
		})
	}
}

func TestRenderDataOverlap(t *testing.T) {
	e := newEngine(t, 0)
	_, _ = e.AddHighlight(lineage("a1x"))
	_, _ = e.AddHighlight(lineage("a2"))

	f := e.RenderData(nil)
	if f.Stats.Overlapping != 1 {
		t.Fatalf("overlapping = %d, want 1", f.Stats.Overlapping)
	}
	if got := len(e.Strokes(f)); got != 4*(4+1) {
		t.Errorf("len(Strokes()) = %d, want 20", got)
	}
}

func TestSetGraphKeepsHighlights(t *testing.T) {
	e := newEngine(t, 0)
	e.SetGraph(treetest.Chain(4))
	if _, err := e.AddHighlight(lineage("n3")); err != nil {
		t.Fatal(err)
	}
	if got := e.RenderData(nil).Stats.Segments; got != 3 {
		t.Fatalf("segments = %d, want 3", got)
	}

	e.SetGraph(treetest.Family())
	if e.Highlights().Len() != 1 {
		t.Fatal("SetGraph() dropped highlights")
	}
	f := e.RenderData(nil)
	if !f.Empty() || len(f.Diagnostics) != 1 {
		t.Errorf("frame after SetGraph = %+v, want empty with one diagnostic", f)
	}
	if got := e.Index().Len(); got != 9 {
		t.Errorf("Index().Len() = %d, want 9", got)
	}
}

func TestPathStrokes(t *testing.T) {
	e := newEngine(t, 0)
	single, _ := e.AddHighlight(lineage("a1x"))
	dual, _ := e.AddHighlight(highlight.Definition{Type: highlight.TypeCousinMarriage, Targets: []string{"a1x", "b1x"}})
	multi, _ := e.AddHighlight(highlight.Definition{Type: highlight.TypeSiblingGroup, Targets: []string{"a1", "a2"}})

	tests := []struct {
		id   string
		want int
	}{
		{single, 3 * 4},
		{dual, 6 * 4},
		{multi, 0},
	}
	for _, tt := range tests {
		got, err := e.PathStrokes(tt.id)
		if err != nil {
			t.Fatalf("PathStrokes(%s) error: %v", tt.id, err)
		}
		if len(got) != tt.want {
			t.Errorf("len(PathStrokes(%s)) = %d, want %d", tt.id, len(got), tt.want)
		}
	}

	if _, err := e.PathStrokes("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("PathStrokes(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestPathStrokesSearchWidth(t *testing.T) {
	e := newEngine(t, 0)
	id, err := e.AddHighlight(highlight.Definition{Type: highlight.TypeSearch, Targets: []string{"a1x"}})
	if err != nil {
		t.Fatalf("AddHighlight() error: %v", err)
	}
	want := config.Default().Quality.StrokeWidth * 1.5

	got, err := e.PathStrokes(id)
	if err != nil {
		t.Fatalf("PathStrokes() error: %v", err)
	}
	cores := 0
	for _, s := range got {
		if s.Layer != stroke.LayerCore {
			continue
		}
		cores++
		if s.Width != want {
			t.Errorf("core width = %v, want %v", s.Width, want)
		}
	}
	if cores != 3 {
		t.Errorf("core strokes = %d, want 3", cores)
	}

	for _, seg := range e.RenderData(nil).Segments {
		if w := seg.Top().Width; w != want {
			t.Errorf("frame width for %s = %v, want %v", seg.ChildID, w, want)
		}
	}
}

func TestCenterOn(t *testing.T) {
	e := newEngine(t, 0)
	vp := viewport.Size{Width: 800, Height: 600}

	tr, err := e.CenterOn("a1", vp)
	if err != nil {
		t.Fatalf("CenterOn() error: %v", err)
	}
	cfg := e.Config().ViewportConfig()
	if tr.Scale < cfg.MinZoom || tr.Scale > cfg.MaxZoom {
		t.Errorf("scale = %v, want within [%v, %v]", tr.Scale, cfg.MinZoom, cfg.MaxZoom)
	}
	center := tr.ToScreen(tree.Point{X: -300, Y: 400})
	if math.Abs(center.X-400) > 1e-9 || math.Abs(center.Y-300) > 1e-9 {
		t.Errorf("a1 on screen at %v, want {400 300}", center)
	}

	if _, err := e.CenterOn("nobody", vp); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("CenterOn(nobody) error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestFit(t *testing.T) {
	e := newEngine(t, 0)
	if _, ok := e.Fit(viewport.Size{Width: 800, Height: 600}); !ok {
		t.Error("Fit() on Family = false, want true")
	}
	e.SetGraph(nil)
	if _, ok := e.Fit(viewport.Size{Width: 800, Height: 600}); ok {
		t.Error("Fit() on empty graph = true, want false")
	}
}
