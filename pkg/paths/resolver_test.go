package paths

import (
	"slices"
	"testing"

	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/tree"
	"github.com/matzehuels/kintree/pkg/tree/treetest"
)

func TestPath(t *testing.T) {
	g := treetest.Family()
	tests := []struct {
		name string
		id   string
		want []string
	}{
		{"great-grandchild", "a1x", []string{"a1x", "a1", "a", "g"}},
		{"mother line", "b1x", []string{"b1x", "b1", "b", "g"}},
		{"root", "g", []string{"g"}},
		{"missing", "nobody", []string{}},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Path(g, tt.id); !slices.Equal(got, tt.want) {
				t.Errorf("Path(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestPathLengthMatchesDepth(t *testing.T) {
	for _, g := range []*tree.Graph{treetest.Family(), treetest.Chain(12)} {
		r := New()
		for _, n := range g.Nodes() {
			if got := len(r.Path(g, n.ID)); got != n.Depth+1 {
				t.Errorf("len(Path(%q)) = %d, want %d", n.ID, got, n.Depth+1)
			}
		}
	}
}

func TestPathPreferMother(t *testing.T) {
	g := treetest.Family()
	got := New(WithParentPreference(PreferMother)).Path(g, "a1x")
	want := []string{"a1x", "a1", "a", "gm"}
	if !slices.Equal(got, want) {
		t.Errorf("Path() = %v, want %v", got, want)
	}
}

func TestPathCycleGuard(t *testing.T) {
	nodes := []tree.Node{
		{ID: "x", FatherID: "y", Depth: 1},
		{ID: "y", FatherID: "z", Depth: 1},
		{ID: "z", FatherID: "x", Depth: 1},
	}
	g, err := tree.New(nodes, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := New().Path(g, "x")
	if want := []string{"x", "y", "z"}; !slices.Equal(got, want) {
		t.Errorf("Path() = %v, want %v", got, want)
	}
}

func TestDualPaths(t *testing.T) {
	g := treetest.Family()
	tests := []struct {
		name      string
		a, b      string
		wantInter string
		wantFound bool
	}{
		{"same node", "a1", "a1", "a1", true},
		{"siblings share father", "a1", "a2", "a", true},
		{"cousins", "a1x", "b1x", "g", true},
		{"ancestor and descendant", "a1x", "a", "a", true},
		{"missing target", "a1", "nobody", "", false},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.DualPaths(g, tt.a, tt.b)
			if d.Intersection != tt.wantInter || d.Found != tt.wantFound {
				t.Errorf("DualPaths() = (%q, %v), want (%q, %v)", d.Intersection, d.Found, tt.wantInter, tt.wantFound)
			}
			if !slices.Equal(d.Paths[0], r.Path(g, tt.a)) {
				t.Errorf("Paths[0] = %v, want path of %s", d.Paths[0], tt.a)
			}
		})
	}
}

func TestDualPathsTrivial(t *testing.T) {
	g := treetest.Family()
	d := New().DualPaths(g, "b1", "b1")
	if !slices.Equal(d.Paths[0], d.Paths[1]) {
		t.Errorf("Paths = %v, want identical chains", d.Paths)
	}
	if d.Intersection != "b1" {
		t.Errorf("Intersection = %q, want b1", d.Intersection)
	}
}

func TestDualPathsCachedOrder(t *testing.T) {
	g := treetest.Family()
	r := New()
	r.DualPaths(g, "a1x", "b1x")
	d := r.DualPaths(g, "b1x", "a1x")
	if d.Paths[0][0] != "b1x" || d.Paths[1][0] != "a1x" {
		t.Errorf("swapped lookup Paths = %v, want b1x chain first", d.Paths)
	}
}

func TestDualTruncated(t *testing.T) {
	g := treetest.Family()
	d := New().DualPaths(g, "a1x", "a2")
	got := d.Truncated()
	if want := []string{"a1x", "a1", "a"}; !slices.Equal(got[0], want) {
		t.Errorf("Truncated()[0] = %v, want %v", got[0], want)
	}
	if want := []string{"a2", "a"}; !slices.Equal(got[1], want) {
		t.Errorf("Truncated()[1] = %v, want %v", got[1], want)
	}

	none := Dual{Paths: [2][]string{{"x", "y"}, {"z"}}}
	if got := none.Truncated(); !slices.Equal(got[0], []string{"x", "y"}) {
		t.Errorf("Truncated() without ancestor = %v, want full chains", got)
	}
}

type countingHooks struct {
	observability.NoopEngineHooks
	hits, misses int
}

func (c *countingHooks) OnPathCacheHit(string)  { c.hits++ }
func (c *countingHooks) OnPathCacheMiss(string) { c.misses++ }

func TestCacheInvalidatesOnNewVersion(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetEngineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := New()
	g1 := treetest.Family()
	r.Path(g1, "a1x")
	r.Path(g1, "a1x")
	if hooks.hits != 1 || hooks.misses != 1 {
		t.Fatalf("hits, misses = %d, %d, want 1, 1", hooks.hits, hooks.misses)
	}

	g2 := treetest.Family()
	r.Path(g2, "a1x")
	if hooks.misses != 2 {
		t.Errorf("misses after relayout = %d, want 2", hooks.misses)
	}
	if single, _ := r.Cached(); single != 1 {
		t.Errorf("cached single = %d, want 1", single)
	}

	r.Invalidate()
	if single, dual := r.Cached(); single != 0 || dual != 0 {
		t.Errorf("Cached() after Invalidate = %d, %d, want 0, 0", single, dual)
	}
}

func TestNodes(t *testing.T) {
	g := treetest.Family()
	got := Nodes(g, []string{"a1", "ghost", "a"})
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "a" {
		t.Errorf("Nodes() = %v, want [a1 a]", got)
	}
}
