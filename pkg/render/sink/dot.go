package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/tree"
)

// ToDOT converts g to Graphviz DOT. Edges claimed by f are drawn in the
// colour of their topmost highlight and thicker than the rest; overlapping
// edges list every contributing colour.
func ToDOT(g *tree.Graph, f *render.Frame) string {
	lit := make(map[[2]string]render.Segment)
	if f != nil {
		for _, s := range f.Segments {
			lit[[2]string{s.ParentID, s.ChildID}] = s
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [color=\"#888888\", arrowhead=none];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, label(n))
	}

	buf.WriteString("\n")
	for _, c := range g.Connections() {
		if c.SpouseID != "" {
			fmt.Fprintf(&buf, "  { rank=same; %q; %q; }\n", c.ParentID, c.SpouseID)
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, dir=none, constraint=false];\n", c.ParentID, c.SpouseID)
		}
		for _, child := range c.ChildIDs {
			seg, ok := lit[[2]string{c.ParentID, child}]
			if !ok {
				fmt.Fprintf(&buf, "  %q -> %q;\n", c.ParentID, child)
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", c.ParentID, child, segmentAttrs(seg))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func segmentAttrs(s render.Segment) string {
	colors := make([]string, len(s.Highlights))
	for i, h := range s.Highlights {
		colors[i] = h.Color
	}
	return fmt.Sprintf("color=%q, penwidth=3", strings.Join(colors, ":"))
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
