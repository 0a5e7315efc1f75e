package cli

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/internal/server"
	"github.com/matzehuels/kintree/pkg/engine"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/observability/prom"
)

// serveCommand runs the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [tree.json]",
		Short: "Serve the engine over HTTP",
		Long: `Serve the engine over HTTP.

The server holds one tree and its active highlights. Load a tree with
PUT /tree or pass a file to preload it. Metrics are exposed at /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := prom.New(reg)
			observability.SetEngineHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			e, err := engine.New(cfg, engine.WithLogger(c.Logger))
			if err != nil {
				return err
			}
			srv := server.New(e,
				server.WithLogger(c.Logger),
				server.WithGatherer(reg),
				server.WithRunner(runner),
			)

			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if err := srv.LoadTree(data); err != nil {
					return err
				}
			}
			return srv.ListenAndServe(cmd.Context(), cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable artifact caching")
	return cmd
}
