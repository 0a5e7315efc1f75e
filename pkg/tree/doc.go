// Package tree defines the positioned family tree consumed by the
// visualization core.
//
// A [Graph] is an immutable snapshot of [Node]s and parent-to-children
// [Connection]s, produced once per layout pass by an external layout stage.
// Each snapshot carries a unique Version token so that caches keyed on the
// graph can detect replacement without comparing contents.
//
// # Building Snapshots
//
//	g, err := tree.New(nodes, conns)
//	if err != nil {
//	    return err // ErrInvalidNodeID, ErrDuplicateNodeID, ErrUnknownParent
//	}
//
// When the layout stage only provides parent references, rebuild the
// adjacency first:
//
//	g, err := tree.New(nodes, tree.DeriveConnections(nodes))
//
// # Serialization
//
// [Document] is the JSON interchange format read by [Decode] and
// [ReadFile] and written by [Encode].
//
// # Geometry
//
// [Point] and [Rect] are layout-space value types shared by the spatial
// index, the render compiler and the viewport controller.
package tree
