package pipeline

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/sink"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Render generates output artifacts in the requested formats.
func Render(g *tree.Graph, f *render.Frame, dims stroke.Dimensions, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(g, f, dims, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(g *tree.Graph, f *render.Frame, dims stroke.Dimensions, format string, opts Options) ([]byte, error) {
	switch format {
	case sink.FormatSVG:
		return sink.RenderSVG(g, f, buildSVGOptions(dims, opts)...), nil
	case sink.FormatPNG:
		return sink.RenderPNG(g, f,
			sink.WithScale(opts.Scale),
			sink.WithPNGSVGOptions(buildSVGOptions(dims, opts)...))
	case sink.FormatJSON:
		var jopts []sink.JSONOption
		if opts.JSONStrokes {
			jopts = append(jopts, sink.WithJSONStrokes())
		}
		return sink.RenderJSON(f, jopts...)
	case sink.FormatDOT:
		return []byte(sink.ToDOT(g, f)), nil
	default:
		return nil, sink.ValidateFormat(format)
	}
}

// buildSVGOptions constructs scene options shared by the SVG and PNG sinks.
func buildSVGOptions(dims stroke.Dimensions, opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{sink.WithDimensions(dims)}
	if opts.NoLabels {
		svgOpts = append(svgOpts, sink.WithoutLabels())
	}
	return svgOpts
}
