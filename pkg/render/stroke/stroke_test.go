package stroke

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/paths"
	"github.com/matzehuels/kintree/pkg/tree"
	"github.com/matzehuels/kintree/pkg/tree/treetest"
)

func TestBusYAndRoute(t *testing.T) {
	if got := BusY(30, 170); got != 100 {
		t.Errorf("BusY() = %v, want 100", got)
	}

	got := Route(tree.Point{X: 50, Y: 30}, tree.Point{X: -200, Y: 170}, 100)
	want := []tree.Point{{X: 50, Y: 30}, {X: 50, Y: 100}, {X: -200, Y: 100}, {X: -200, Y: 170}}
	if !slices.Equal(got, want) {
		t.Errorf("Route() = %v, want %v", got, want)
	}
}

func TestConnectionRoutesFromCoupleMidpoint(t *testing.T) {
	g := treetest.Family()
	var couple tree.Connection
	for _, c := range g.Connections() {
		if c.ParentID == "g" {
			couple = c
		}
	}

	edges := ConnectionRoutes(g, couple, DefaultDimensions())
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2", len(edges))
	}
	for _, e := range edges {
		if e.Points[0] != (tree.Point{X: 50, Y: 30}) {
			t.Errorf("%s start = %v, want couple midpoint {50 30}", e.ChildID, e.Points[0])
		}
		if e.Points[1].Y != 100 {
			t.Errorf("%s bus y = %v, want 100", e.ChildID, e.Points[1].Y)
		}
		if !e.From("gm") {
			t.Errorf("%s From(gm) = false, want true", e.ChildID)
		}
	}
}

func TestRoutesEdge(t *testing.T) {
	r := NewRoutes(treetest.Family(), DefaultDimensions())
	tests := []struct {
		parent, child string
		want          bool
	}{
		{"a", "a1", true},
		{"gm", "a", true},
		{"b", "a1", false},
		{"a", "ghost", false},
	}
	for _, tt := range tests {
		if _, ok := r.Edge(tt.parent, tt.child); ok != tt.want {
			t.Errorf("Edge(%s, %s) ok = %v, want %v", tt.parent, tt.child, ok, tt.want)
		}
	}
	if n := len(r.All()); n != 7 {
		t.Errorf("len(All()) = %d, want 7", n)
	}
}

func TestLayers(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierFull, 4},
		{TierReduced, 2},
		{TierMinimal, 1},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			got := Layers(tt.tier, nil, 2, "#ff0000")
			if len(got) != tt.want || tt.tier.Layers() != tt.want {
				t.Fatalf("len(Layers()) = %d, want %d", len(got), tt.want)
			}
			core := got[len(got)-1]
			if core.Layer != LayerCore || core.Opacity != 1 || core.Width != 2 {
				t.Errorf("core = %+v, want opaque core of width 2", core)
			}
			for _, s := range got[:len(got)-1] {
				if s.Width <= core.Width || s.Opacity >= 1 {
					t.Errorf("glow %s = %+v, want wider and translucent", s.Layer, s)
				}
			}
		})
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		typ    highlight.Type
		want   Strategy
		wantOK bool
	}{
		{highlight.TypeSearch, StrategySingle, true},
		{highlight.TypeCousinMarriage, StrategyDual, true},
		{highlight.TypeSiblingGroup, StrategyMulti, true},
		{"mystery", StrategySingle, false},
	}
	for _, tt := range tests {
		got, ok := For(tt.typ)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("For(%s) = %v, %v, want %v, %v", tt.typ, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSinglePathBands(t *testing.T) {
	g := treetest.Family()
	routes := NewRoutes(g, DefaultDimensions())
	pal := DefaultPalettes().Primary
	path := paths.New().Path(g, "a1x")

	got := SinglePath(routes, path, pal, Style{Tier: TierMinimal, Width: 3})
	if len(got) != 3 {
		t.Fatalf("len(SinglePath()) = %d, want 3", len(got))
	}
	for band, s := range got {
		if s.Color != pal.At(band) {
			t.Errorf("band %d color = %s, want %s", band, s.Color, pal.At(band))
		}
		if s.ChildID != path[band] {
			t.Errorf("band %d child = %s, want %s", band, s.ChildID, path[band])
		}
	}

	if got := SinglePath(routes, []string{"g"}, pal, Style{}); got != nil {
		t.Errorf("SinglePath(root only) = %v, want nil", got)
	}
}

func TestDualPathStopsAtAncestor(t *testing.T) {
	g := treetest.Family()
	routes := NewRoutes(g, DefaultDimensions())
	pals := DefaultPalettes()
	d := paths.New().DualPaths(g, "a1", "a2")

	got := DualPath(routes, d, [2]Palette{pals.Primary, pals.Secondary}, Style{Tier: TierReduced, Width: 2})
	if len(got) != 4 {
		t.Fatalf("len(DualPath()) = %d, want 4", len(got))
	}
	for _, s := range got {
		if s.ParentID != "a" {
			t.Errorf("stroke %s->%s reaches past the common ancestor", s.ParentID, s.ChildID)
		}
	}
	if got[0].Color == got[2].Color {
		t.Errorf("chains share colour %s, want distinct palettes", got[0].Color)
	}
}

func TestMultiPathLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	if got := MultiPath(logger, []string{"a", "b", "c"}); got != nil {
		t.Errorf("MultiPath() = %v, want nil", got)
	}
	if !strings.Contains(buf.String(), "multi-path") {
		t.Errorf("log = %q, want multi-path message", buf.String())
	}
	MultiPath(nil, nil)
}

func TestAdditive(t *testing.T) {
	tests := []struct {
		name   string
		colors []string
		want   string
	}{
		{"red plus green", []string{"#ff0000", "#00ff00"}, "#ffff00"},
		{"saturates", []string{"#ffffff", "#ffffff"}, "#ffffff"},
		{"single", []string{"#0000ff"}, "#0000ff"},
		{"ignores junk", []string{"#0000ff", "nope"}, "#0000ff"},
		{"none", nil, "#000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Additive(tt.colors...); got != tt.want {
				t.Errorf("Additive() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPaletteAt(t *testing.T) {
	p := NewPalette("test", 0, 120, 0.5, 0.5, 3)
	if p.At(0) == p.At(2) {
		t.Errorf("At(0) = At(2) = %s, want distinct hues", p.At(0))
	}
	if p.At(3) != p.At(0) {
		t.Errorf("At(3) = %s, want wrap to %s", p.At(3), p.At(0))
	}
	if got := (Palette{}).At(1); got != "#ffffff" {
		t.Errorf("empty At() = %s, want #ffffff", got)
	}
}

func TestRoutesForChildren(t *testing.T) {
	r := NewRoutes(treetest.Family(), DefaultDimensions())
	got := r.ForChildren([]string{"b1x", "a", "nobody", "a", "b"})
	var kids []string
	for _, e := range got {
		kids = append(kids, e.ChildID)
	}
	if want := []string{"a", "b", "b1x"}; !slices.Equal(kids, want) {
		t.Errorf("ForChildren() children = %v, want %v", kids, want)
	}
}
