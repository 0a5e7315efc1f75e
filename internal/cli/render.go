package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/tree"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file (single format) or base path
	formats    string   // comma-separated formats
	highlights []string // type:id[,id] specs
	viewport   string   // minx,miny,maxx,maxy
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{Scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Render a tree with highlighted ancestry paths",
		Long: `Render a positioned tree to SVG, PNG, JSON or Graphviz DOT.

Highlights are given as type:targets, for example:

  kintree render tree.json --highlight lineage:p42
  kintree render tree.json --highlight relationship:p7,p42 -f svg,png

Highlights whose targets are missing from the tree are reported and skipped.
Results are cached; use --refresh to recompute.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := parseHighlights(ro.highlights)
			if err != nil {
				return err
			}
			opts.Highlights = defs
			opts.Formats = parseFormats(ro.formats)
			if opts.Viewport, err = parseViewportFlag(ro.viewport); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), printer{cmd.OutOrStdout()}, args[0], ro, opts)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")
	cmd.Flags().StringArrayVarP(&ro.highlights, "highlight", "l", nil, highlightTypesHelp())
	cmd.Flags().StringVar(&ro.viewport, "viewport", "", "world-space crop as minx,miny,maxx,maxy")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG pixels per world unit")
	cmd.Flags().BoolVar(&opts.NoLabels, "no-labels", false, "omit node labels")
	cmd.Flags().BoolVar(&opts.JSONStrokes, "strokes", false, "include expanded strokes in JSON output")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, p printer, input string, ro renderOpts, opts pipeline.Options) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	opts.Logger = c.Logger
	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(result.Artifacts)))

	p.success("Rendered %s", filepath.Base(input))
	p.stats(result.Stats.NodeCount, result.Stats.ConnectionCount, result.CacheInfo.RenderHit)
	for _, r := range result.Rejected {
		p.warning("highlight %d skipped: %s", r.Index+1, r.Message)
	}
	if result.Frame != nil {
		p.detail("%d segments, %d shared, %s quality", len(result.Frame.Segments), result.Frame.Stats.Overlapping, result.Frame.Tier)
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, input, ro.output)
	if err != nil {
		return err
	}
	for _, path := range paths {
		p.file(path)
	}
	return nil
}

// writeArtifacts writes one file per format. A single format goes to output
// when it is set; otherwise files are named after output (or the input) with
// the format as extension, never overwriting the input.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	if len(formats) == 1 && output != "" {
		return []string{output}, writeFile(output, artifacts[formats[0]])
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if path == input {
			path = base + ".render." + format
		}
		if err := writeFile(path, artifacts[format]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// parseViewportFlag parses "minx,miny,maxx,maxy". An empty string means the
// whole tree.
func parseViewportFlag(s string) (*tree.Rect, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "viewport %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "viewport %q", s)
		}
		v[i] = f
	}
	return &tree.Rect{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}, nil
}
