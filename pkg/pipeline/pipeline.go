// Package pipeline provides the load → compile → render path shared by the
// CLI and the HTTP server.
//
// By centralizing this logic, both entry points apply highlights, quality
// tiers and caching the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a positioned tree document into a graph snapshot
//  2. Compile: Apply highlight definitions and compile a frame
//  3. Render: Generate output in the requested formats (SVG, PNG, JSON, DOT)
//
// Compiled frames and rendered artifacts are cached under keys derived from
// the tree content hash, the highlight definitions, the viewport and the
// render settings.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, cfg, logger)
//	result, err := runner.Execute(ctx, treeJSON, pipeline.Options{
//	    Highlights: []highlight.Definition{{Type: highlight.TypeLineage, Targets: []string{"p42"}}},
//	    Formats:    []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/sink"
	"github.com/matzehuels/kintree/pkg/tree"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultScale is the PNG pixels-per-unit factor.
	DefaultScale = 1.0

	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = sink.FormatSVG
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all per-run configuration of the pipeline. Engine-wide
// settings (thresholds, geometry, capacity) come from the runner's config.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Compile options
	Highlights []highlight.Definition `json:"highlights,omitempty"`
	Viewport   *tree.Rect             `json:"viewport,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	NoLabels    bool     `json:"no_labels,omitempty"`
	JSONStrokes bool     `json:"json_strokes,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded tree snapshot.
	Graph *tree.Graph

	// TreeHash is the content hash of the tree document.
	TreeHash string

	// Frame is the compiled draw list.
	Frame *render.Frame

	// Rejected lists highlight definitions that were not activated.
	Rejected []Rejection

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Rejection records why a highlight definition was not applied.
type Rejection struct {
	Index   int         `json:"index"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount       int
	ConnectionCount int
	LoadTime        time.Duration
	CompileTime     time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FrameHit  bool // Whether the compiled frame came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompile(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCompile checks highlight definitions and the viewport.
// Definitions are checked for shape only; missing targets are reported per
// highlight during compilation.
func (o *Options) ValidateForCompile() error {
	for i, def := range o.Highlights {
		if err := def.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidHighlight, err, "highlight %d", i)
		}
	}
	if o.Viewport != nil && o.Viewport.IsEmpty() {
		return errors.New(errors.ErrCodeInvalidInput, "viewport is empty")
	}
	o.setLoggerDefault()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLoggerDefault()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return errors.ValidateFormats(o.Formats, sink.Formats())
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// FrameKeyOpts returns cache key options for frame compilation.
func (o *Options) FrameKeyOpts(settings string) cache.FrameKeyOpts {
	return cache.FrameKeyOpts{
		Highlights: o.Highlights,
		Viewport:   o.Viewport,
		Settings:   settings,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format, settings string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		FrameKeyOpts: o.FrameKeyOpts(settings),
		Format:       format,
	}
	if format == sink.FormatPNG {
		k.Scale = o.Scale
	}
	if o.NoLabels {
		k.Settings += ":nolabels"
	}
	if format == sink.FormatJSON && o.JSONStrokes {
		k.Settings += ":strokes"
	}
	return k
}
