package spatial_test

import (
	"fmt"
	"slices"

	"github.com/matzehuels/kintree/pkg/spatial"
	"github.com/matzehuels/kintree/pkg/tree"
)

func ExampleIndex_Query() {
	idx := spatial.New(100)
	idx.Insert("alice", 20, 30)
	idx.Insert("bob", 420, 30)

	ids := idx.Query(tree.Rect{MinX: 0, MinY: 0, MaxX: 150, MaxY: 150})
	slices.Sort(ids)
	fmt.Println(ids)
	// Output:
	// [alice]
}
