package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the JSON interchange format for a positioned tree as produced
// by the layout stage:
//
//	{
//	  "root": "p1",
//	  "nodes": [
//	    {"id": "p1", "x": 0, "y": 0, "depth": 0},
//	    {"id": "p2", "x": -80, "y": 200, "depth": 1, "father_id": "p1"}
//	  ],
//	  "connections": [{"parent_id": "p1", "children": ["p2"]}]
//	}
//
// When "connections" is omitted, connections are derived from the parent
// references with [DeriveConnections].
type Document struct {
	Root        string         `json:"root,omitempty"`
	Nodes       []DocumentNode `json:"nodes"`
	Connections []DocumentConn `json:"connections,omitempty"`
}

// DocumentNode is the serialized form of [Node].
type DocumentNode struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Depth    int     `json:"depth"`
	FatherID string  `json:"father_id,omitempty"`
	MotherID string  `json:"mother_id,omitempty"`
	HasPhoto bool    `json:"has_photo,omitempty"`
}

// DocumentConn is the serialized form of [Connection].
type DocumentConn struct {
	ParentID string   `json:"parent_id"`
	SpouseID string   `json:"spouse_id,omitempty"`
	Children []string `json:"children"`
}

// Graph converts the document into an immutable snapshot.
func (d Document) Graph() (*Graph, error) {
	nodes := make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = Node{
			ID: n.ID, Name: n.Name,
			X: n.X, Y: n.Y, Depth: n.Depth,
			FatherID: n.FatherID, MotherID: n.MotherID,
			HasPhoto: n.HasPhoto,
		}
	}

	var conns []Connection
	if d.Connections == nil {
		conns = DeriveConnections(nodes)
	} else {
		conns = make([]Connection, len(d.Connections))
		for i, c := range d.Connections {
			conns[i] = Connection{ParentID: c.ParentID, SpouseID: c.SpouseID, ChildIDs: c.Children}
		}
	}
	return New(nodes, conns)
}

// FromGraph converts a snapshot back into its document form.
func FromGraph(g *Graph, root string) Document {
	d := Document{Root: root}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, DocumentNode{
			ID: n.ID, Name: n.Name,
			X: n.X, Y: n.Y, Depth: n.Depth,
			FatherID: n.FatherID, MotherID: n.MotherID,
			HasPhoto: n.HasPhoto,
		})
	}
	for _, c := range g.Connections() {
		d.Connections = append(d.Connections, DocumentConn{
			ParentID: c.ParentID, SpouseID: c.SpouseID, Children: c.ChildIDs,
		})
	}
	return d
}

// Decode reads a JSON document from r and builds the snapshot.
// Errors are wrapped with the failing stage; use errors.Is to check for the
// sentinel errors of this package. Decode does not close r.
func Decode(r io.Reader) (*Graph, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return d.Graph()
}

// Encode writes g as an indented JSON document.
func Encode(w io.Writer, g *Graph, root string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromGraph(g, root))
}

// ReadFile decodes the JSON document at path.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
