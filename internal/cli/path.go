package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/engine"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/tree"
)

// pathCommand prints ancestry chains.
func (c *CLI) pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path [tree.json] [id] [other-id]",
		Short: "Print the ancestry chain of a person, or of two people and their common ancestor",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEngine(args[0])
			if err != nil {
				return err
			}
			p := printer{cmd.OutOrStdout()}
			if len(args) == 2 {
				return printPath(p, e, args[1])
			}
			return printDualPaths(p, e, args[1], args[2])
		},
	}
}

// loadEngine reads a tree file into a fresh engine built from the config.
func (c *CLI) loadEngine(input string) (*engine.Engine, error) {
	g, err := tree.ReadFile(input)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "load %s", input)
	}
	e, err := engine.New(c.cfg(), engine.WithLogger(c.Logger))
	if err != nil {
		return nil, err
	}
	e.SetGraph(g)
	c.Logger.Debug("tree loaded", "file", input, "nodes", g.Len())
	return e, nil
}

func printPath(p printer, e *engine.Engine, id string) error {
	path := e.CalculatePath(id)
	if len(path) == 0 {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not in tree", id)
	}
	p.line(StyleTitle.Render("Ancestry of " + id))
	p.table(pathHeaders, pathRows(path), "")
	if len(path) == 1 {
		p.info("%s has no placed ancestors", id)
	}
	return nil
}

func printDualPaths(p printer, e *engine.Engine, a, b string) error {
	for _, id := range []string{a, b} {
		if !e.Graph().Has(id) {
			return errors.New(errors.ErrCodeNodeNotFound, "node %q not in tree", id)
		}
	}
	d := e.CalculateDualPaths(a, b)
	meet := ""
	if d.Intersection != nil {
		meet = d.Intersection.ID
	}

	for i, id := range []string{a, b} {
		p.line(StyleTitle.Render("Ancestry of " + id))
		p.table(pathHeaders, pathRows(d.Paths[i]), meet)
	}
	if d.Intersection == nil {
		p.warning("%s and %s share no placed ancestor", a, b)
		return nil
	}
	p.keyValue("Common", fmt.Sprintf("%s (%d and %d generations up)",
		label(*d.Intersection), indexOf(d.Paths[0], meet), indexOf(d.Paths[1], meet)))
	return nil
}

var pathHeaders = []string{"ID", "Name", "Depth", "Position"}

func pathRows(path []tree.Node) [][]string {
	rows := make([][]string, len(path))
	for i, n := range path {
		rows[i] = []string{n.ID, n.Name, strconv.Itoa(n.Depth), fmt.Sprintf("%.0f, %.0f", n.X, n.Y)}
	}
	return rows
}

func label(n tree.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func indexOf(path []tree.Node, id string) int {
	for i, n := range path {
		if n.ID == id {
			return i
		}
	}
	return -1
}
