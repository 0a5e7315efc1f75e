// Package config loads kintree settings from TOML.
//
// Missing files and missing keys fall back to [Default]. The default location
// is $XDG_CONFIG_HOME/kintree/config.toml (~/.config/kintree/config.toml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/paths"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/spatial"
	"github.com/matzehuels/kintree/pkg/viewport"
)

// Config holds kintree configuration.
type Config struct {
	Highlights HighlightsConfig  `toml:"highlights"`
	Paths      PathsConfig       `toml:"paths"`
	Spatial    SpatialConfig     `toml:"spatial"`
	Quality    QualityConfig     `toml:"quality"`
	Viewport   viewport.Config   `toml:"viewport"`
	Geometry   stroke.Dimensions `toml:"geometry"`
	Cull       CullConfig        `toml:"cull"`
	Cache      CacheConfig       `toml:"cache"`
	Server     ServerConfig      `toml:"server"`
}

// HighlightsConfig bounds the highlight registry.
type HighlightsConfig struct {
	Capacity int `toml:"capacity"`
}

// PathsConfig controls ancestor walks.
type PathsConfig struct {
	Prefer string `toml:"prefer"` // "father" or "mother"
}

// SpatialConfig sizes the culling index.
type SpatialConfig struct {
	CellSize float64 `toml:"cell_size"`
}

// QualityConfig holds the level-of-detail thresholds.
type QualityConfig struct {
	LowThreshold  int     `toml:"low_threshold"`
	HighThreshold int     `toml:"high_threshold"`
	StrokeWidth   float64 `toml:"stroke_width"`
}

// CullConfig controls viewport culling.
type CullConfig struct {
	MinConnections int     `toml:"min_connections"`
	Margin         float64 `toml:"margin"`
}

// CacheConfig selects the render artifact cache.
type CacheConfig struct {
	Backend   string        `toml:"backend"` // "none", "file", "redis"
	Dir       string        `toml:"dir"`
	TTL       time.Duration `toml:"ttl"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	KeyPrefix string        `toml:"key_prefix"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Default returns the default configuration.
func Default() *Config {
	ropts := render.DefaultOptions()
	return &Config{
		Highlights: HighlightsConfig{Capacity: 20},
		Paths:      PathsConfig{Prefer: "father"},
		Spatial:    SpatialConfig{CellSize: spatial.DefaultCellSize},
		Quality: QualityConfig{
			LowThreshold:  ropts.LowThreshold,
			HighThreshold: ropts.HighThreshold,
			StrokeWidth:   ropts.StrokeWidth,
		},
		Viewport: viewport.DefaultConfig(),
		Geometry: stroke.DefaultDimensions(),
		Cull: CullConfig{
			MinConnections: ropts.CullMinConnections,
			Margin:         ropts.CullMargin,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			TTL:       24 * time.Hour,
			RedisAddr: "localhost:6379",
			KeyPrefix: "kintree:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Dir returns the kintree config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "kintree")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults. A missing file is not an error. An
// empty path reads the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile reads path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Highlights.Capacity > 0, "highlights.capacity must be > 0")
	check(c.Paths.Prefer == "father" || c.Paths.Prefer == "mother", "paths.prefer must be father or mother, got %q", c.Paths.Prefer)
	check(c.Spatial.CellSize > 0, "spatial.cell_size must be > 0")
	check(c.Quality.LowThreshold > 0, "quality.low_threshold must be > 0")
	check(c.Quality.HighThreshold >= c.Quality.LowThreshold, "quality.high_threshold must be >= low_threshold")
	check(c.Quality.StrokeWidth > 0, "quality.stroke_width must be > 0")
	check(c.Viewport.MinZoom > 0, "viewport.min_zoom must be > 0")
	check(c.Viewport.MaxZoom >= c.Viewport.MinZoom, "viewport.max_zoom must be >= min_zoom")
	check(c.Viewport.Padding >= 0, "viewport.padding must be >= 0")
	check(c.Geometry.NodeWidth > 0 && c.Geometry.NodeHeight > 0, "geometry node size must be > 0")
	check(c.Cull.Margin >= 0, "cull.margin must be >= 0")
	switch c.Cache.Backend {
	case CacheNone, CacheFile, CacheRedis:
	default:
		check(false, "cache.backend must be none, file or redis, got %q", c.Cache.Backend)
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// ParentPreference returns the configured walk preference.
func (c *Config) ParentPreference() paths.Preference {
	if c.Paths.Prefer == "mother" {
		return paths.PreferMother
	}
	return paths.PreferFather
}

// ViewportConfig returns the viewport limits with the node width taken from
// the geometry section.
func (c *Config) ViewportConfig() viewport.Config {
	v := c.Viewport
	v.NodeWidth = c.Geometry.NodeWidth
	return v
}

// RenderOptions returns compiler options for this configuration.
func (c *Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.LowThreshold = c.Quality.LowThreshold
	opts.HighThreshold = c.Quality.HighThreshold
	opts.StrokeWidth = c.Quality.StrokeWidth
	opts.CullMinConnections = c.Cull.MinConnections
	opts.CullMargin = c.Cull.Margin
	opts.Dimensions = c.Geometry
	return opts
}
