package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/paths"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Highlights.Capacity = 5
	cfg.Cache.Backend = CacheRedis
	cfg.Server.ReadTimeout = 3 * time.Second

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("LoadFile() = %+v, want %+v", got, cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[quality]\nlow_threshold = 10\nhigh_threshold = 30\n\n[paths]\nprefer = \"mother\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Quality.LowThreshold != 10 || cfg.Quality.HighThreshold != 30 {
		t.Errorf("quality = %+v, want 10/30", cfg.Quality)
	}
	if cfg.Highlights.Capacity != 20 {
		t.Errorf("capacity = %d, want default 20", cfg.Highlights.Capacity)
	}
	if cfg.ParentPreference() != paths.PreferMother {
		t.Error("ParentPreference() = father, want mother")
	}

	opts := cfg.RenderOptions()
	if opts.LowThreshold != 10 || opts.Dimensions != cfg.Geometry {
		t.Errorf("RenderOptions() = %+v, want thresholds and geometry from config", opts)
	}
	if cfg.ViewportConfig().NodeWidth != cfg.Geometry.NodeWidth {
		t.Error("ViewportConfig() node width not taken from geometry")
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[quality\nlow = 1"},
		{"unknown key", "[quality]\nshininess = 11\n"},
		{"invalid value", "[highlights]\ncapacity = 0\n"},
		{"inverted thresholds", "[quality]\nlow_threshold = 100\nhigh_threshold = 10\n"},
		{"bad backend", "[cache]\nbackend = \"floppy\"\n"},
		{"bad preference", "[paths]\nprefer = \"uncle\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got, want := Path(), filepath.Join(dir, "kintree", "config.toml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
