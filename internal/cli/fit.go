package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/viewport"
)

// fitCommand computes the camera transform for a node or the whole tree.
func (c *CLI) fitCommand() *cobra.Command {
	size := viewport.Size{Width: 800, Height: 600}

	cmd := &cobra.Command{
		Use:   "fit [tree.json] [id]",
		Short: "Compute the camera transform that frames a person or the whole tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size.Width <= 0 || size.Height <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "viewport size must be positive, got %gx%g", size.Width, size.Height)
			}
			e, err := c.loadEngine(args[0])
			if err != nil {
				return err
			}

			var t viewport.Transform
			if len(args) == 2 {
				if t, err = e.CenterOn(args[1], size); err != nil {
					return err
				}
			} else {
				var ok bool
				if t, ok = e.Fit(size); !ok {
					return errors.New(errors.ErrCodeInvalidTree, "%s has no nodes", args[0])
				}
			}

			p := printer{cmd.OutOrStdout()}
			p.keyValue("Translate", fmt.Sprintf("%.2f, %.2f", t.X, t.Y))
			p.keyValue("Scale", fmt.Sprintf("%.4f", t.Scale))
			return nil
		},
	}

	cmd.Flags().Float64Var(&size.Width, "width", size.Width, "viewport width in pixels")
	cmd.Flags().Float64Var(&size.Height, "height", size.Height, "viewport height in pixels")
	return cmd
}
