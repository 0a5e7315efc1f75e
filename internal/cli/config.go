package cli

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/errors"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(c.configInitCommand(), c.configShowCommand())
	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPathOrDefault()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidConfig, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "write %s", path)
			}
			p := printer{cmd.OutOrStdout()}
			p.success("Wrote default configuration")
			p.file(path)
			p.nextStep("Show the effective settings", appName+" config show")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.cfg())
		},
	}
}
