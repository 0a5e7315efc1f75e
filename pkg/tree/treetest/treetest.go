// Package treetest provides small positioned trees for tests.
package treetest

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/tree"
)

// Family returns a four-generation tree rooted at "g":
//
//	g + gm                 depth 0
//	├── a        └── b     depth 1 (b is female)
//	├── a1  a2       b1    depth 2
//	└── a1x          b1x   depth 3
//
// Generations are 200 units apart vertically.
func Family() *tree.Graph {
	nodes := []tree.Node{
		{ID: "g", X: 0, Y: 0, Depth: 0},
		{ID: "gm", X: 100, Y: 0, Depth: 0},
		{ID: "a", X: -200, Y: 200, Depth: 1, FatherID: "g", MotherID: "gm"},
		{ID: "b", X: 250, Y: 200, Depth: 1, FatherID: "g", MotherID: "gm"},
		{ID: "a1", X: -300, Y: 400, Depth: 2, FatherID: "a"},
		{ID: "a2", X: -100, Y: 400, Depth: 2, FatherID: "a"},
		{ID: "b1", X: 250, Y: 400, Depth: 2, MotherID: "b"},
		{ID: "a1x", X: -300, Y: 600, Depth: 3, FatherID: "a1"},
		{ID: "b1x", X: 250, Y: 600, Depth: 3, MotherID: "b1"},
	}
	g, err := tree.New(nodes, tree.DeriveConnections(nodes))
	if err != nil {
		panic(err)
	}
	return g
}

// Chain returns a single line of descent n0 <- n1 <- ... <- n(depth), with
// n0 at the root.
func Chain(depth int) *tree.Graph {
	nodes := make([]tree.Node, depth+1)
	for i := range nodes {
		nodes[i] = tree.Node{ID: fmt.Sprintf("n%d", i), X: 0, Y: float64(i) * 200, Depth: i}
		if i > 0 {
			nodes[i].FatherID = fmt.Sprintf("n%d", i-1)
		}
	}
	g, err := tree.New(nodes, tree.DeriveConnections(nodes))
	if err != nil {
		panic(err)
	}
	return g
}

// Grid returns width*height unrelated nodes laid out spacing units apart,
// named "x<col>y<row>". It exercises spatial queries on larger trees.
func Grid(width, height int, spacing float64) *tree.Graph {
	nodes := make([]tree.Node, 0, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			nodes = append(nodes, tree.Node{
				ID: fmt.Sprintf("x%dy%d", col, row),
				X:  float64(col) * spacing,
				Y:  float64(row) * spacing,
			})
		}
	}
	g, err := tree.New(nodes, nil)
	if err != nil {
		panic(err)
	}
	return g
}
