package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/render/sink"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "kintree"

	// envRedisPassword supplies the redis password; it is never read from the
	// config file.
	envRedisPassword = "KINTREE_REDIS_PASSWORD"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Kintree renders highlighted ancestry paths over family trees",
		Long: `Kintree draws family trees laid out by an external layout stage and
emphasizes ancestry chains on top of them: lineages, relationships between two
people, and their common ancestors. Overlapping chains blend additively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.fitCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	c.Logger.Debug("config loaded", "path", c.configPathOrDefault(), "cache", cfg.Cache.Backend)
	return nil
}

func (c *CLI) configPathOrDefault() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.Path()
}

// cfg returns the loaded config, or the defaults when a command runs without
// the root pre-run (as in tests).
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		c.config = config.Default()
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.cfg()
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.KeyPrefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.KeyPrefix)
	}
	return pipeline.NewRunner(store, keyer, cfg, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg()
	if noCache {
		return cache.NewNullCache(), nil
	}
	store, err := cache.New(ctx, cache.Options{
		Backend:       cfg.Cache.Backend,
		Dir:           cfg.Cache.Dir,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: os.Getenv(envRedisPassword),
		RedisDB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.Instrument(store, "artifact"), nil
}

// =============================================================================
// Flag Parsing
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{sink.FormatSVG}
	}
	return strings.Split(s, ",")
}

// parseHighlight parses "type:id[,id...]", for example "lineage:p42" or
// "relationship:p1,p2".
func parseHighlight(s string) (highlight.Definition, error) {
	kind, targets, ok := strings.Cut(s, ":")
	if !ok || targets == "" {
		return highlight.Definition{}, errors.New(errors.ErrCodeInvalidHighlight,
			"highlight %q: want type:id[,id...]", s)
	}
	t, err := highlight.ParseType(kind)
	if err != nil {
		return highlight.Definition{}, errors.Wrap(errors.ErrCodeInvalidHighlight, err, "highlight %q", s)
	}
	def := highlight.Definition{Type: t}
	for _, id := range strings.Split(targets, ",") {
		def.Targets = append(def.Targets, strings.TrimSpace(id))
	}
	if err := def.Validate(); err != nil {
		return highlight.Definition{}, err
	}
	return def, nil
}

func parseHighlights(specs []string) ([]highlight.Definition, error) {
	defs := make([]highlight.Definition, 0, len(specs))
	for _, s := range specs {
		def, err := parseHighlight(s)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// highlightTypesHelp lists the accepted highlight types for flag help.
func highlightTypesHelp() string {
	types := highlight.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return fmt.Sprintf("highlight as type:id[,id] (repeatable); types: %s", strings.Join(names, ", "))
}
