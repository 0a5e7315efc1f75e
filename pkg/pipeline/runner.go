package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/engine"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options: every run compiles on its own engine.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Config *config.Config
	Logger *log.Logger
	// TTL applies to every cache write.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If cfg is nil, config.Default is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, cfg *config.Config, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = cache.TTLArtifact
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Config: cfg,
		Logger: logger,
		TTL:    ttl,
	}
}

// Execute runs the complete load → compile → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, treeJSON []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	g, hash, err := r.Load(treeJSON)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Graph = g
	result.TreeHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.Len()
	result.Stats.ConnectionCount = len(g.Connections())

	r.Logger.Info("loaded tree",
		"nodes", result.Stats.NodeCount,
		"connections", result.Stats.ConnectionCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Compile
	compileStart := time.Now()
	frame, rejected, frameHit, err := r.CompileWithCacheInfo(ctx, g, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	result.Frame = frame
	result.Rejected = rejected
	result.Stats.CompileTime = time.Since(compileStart)
	result.CacheInfo.FrameHit = frameHit

	r.Logger.Info("compiled highlights",
		"segments", frame.Stats.Segments,
		"overlapping", frame.Stats.Overlapping,
		"tier", frame.Tier,
		"cached", frameHit,
		"duration", result.Stats.CompileTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, hash, frame, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load decodes a tree document and returns the snapshot with the content
// hash used in cache keys.
func (r *Runner) Load(treeJSON []byte) (*tree.Graph, string, error) {
	g, err := tree.Decode(bytes.NewReader(treeJSON))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidTree, err, "decode tree")
	}
	return g, cache.Hash(treeJSON), nil
}

// CompileWithCacheInfo applies the highlight definitions to g and compiles
// a frame, returning the rejected definitions and whether the frame came
// from cache. A rejected definition does not fail the run; it simply does
// not appear.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, g *tree.Graph, hash string, opts Options) (*render.Frame, []Rejection, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCompile(); err != nil {
		return nil, nil, false, err
	}

	cacheKey := r.Keyer.FrameKey(hash, opts.FrameKeyOpts(r.settings()))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached frameEntry
			if err := json.Unmarshal(data, &cached); err == nil && cached.Frame != nil {
				return cached.Frame, cached.Rejected, true, nil
			}
		}
	}

	frame, rejected, err := r.Compile(g, opts)
	if err != nil {
		return nil, nil, false, err
	}

	if data, err := json.Marshal(frameEntry{Frame: frame, Rejected: rejected}); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, r.TTL)
	}
	return frame, rejected, false, nil
}

type frameEntry struct {
	Frame    *render.Frame `json:"frame"`
	Rejected []Rejection   `json:"rejected,omitempty"`
}

// Compile applies the highlight definitions to g on a fresh engine without
// consulting the cache. Highlight ids are assigned in order ("h1", "h2", ...)
// so that identical inputs produce identical frames.
func (r *Runner) Compile(g *tree.Graph, opts Options) (*render.Frame, []Rejection, error) {
	opts.setLoggerDefault()
	seq := 0
	e, err := engine.New(r.Config,
		engine.WithLogger(opts.Logger),
		engine.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("h%d", seq)
		}))
	if err != nil {
		return nil, nil, err
	}
	e.SetGraph(g)

	var rejected []Rejection
	for i, def := range opts.Highlights {
		if _, err := e.AddHighlight(def); err != nil {
			opts.Logger.Warn("highlight rejected", "index", i, "type", def.Type, "err", errors.UserMessage(err))
			rejected = append(rejected, Rejection{Index: i, Code: errors.GetCode(err), Message: errors.UserMessage(err)})
		}
	}
	return e.RenderData(opts.Viewport), rejected, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *tree.Graph, hash string, f *render.Frame, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	settings := r.settings()

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte)
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format, settings))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	rendered, err := Render(g, f, r.Config.Geometry, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format, settings))
		if err := r.Cache.Set(ctx, cacheKey, data, r.TTL); err != nil {
			r.Logger.Debug("cache write failed", "format", format, "err", err)
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// settings fingerprints the configuration sections that change output.
func (r *Runner) settings() string {
	data, err := json.Marshal(struct {
		Capacity int
		Prefer   string
		Quality  config.QualityConfig
		Cull     config.CullConfig
		Geometry stroke.Dimensions
	}{
		Capacity: r.Config.Highlights.Capacity,
		Prefer:   r.Config.Paths.Prefer,
		Quality:  r.Config.Quality,
		Cull:     r.Config.Cull,
		Geometry: r.Config.Geometry,
	})
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
