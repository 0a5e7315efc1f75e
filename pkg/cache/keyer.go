package cache

import (
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey identifies one rendered output of a tree.
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string
	// FrameKey identifies a compiled frame of a tree.
	FrameKey(treeHash string, opts FrameKeyOpts) string
}

// FrameKeyOpts holds every input of a compilation besides the tree.
type FrameKeyOpts struct {
	Highlights []highlight.Definition `json:"highlights"`
	Viewport   *tree.Rect             `json:"viewport,omitempty"`
	// Settings fingerprints the render options (thresholds, geometry).
	Settings string `json:"settings,omitempty"`
}

// ArtifactKeyOpts adds the output parameters to a frame key.
type ArtifactKeyOpts struct {
	FrameKeyOpts
	Format string  `json:"format"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", treeHash, opts)
}

// FrameKey implements Keyer.
func (DefaultKeyer) FrameKey(treeHash string, opts FrameKeyOpts) string {
	return hashKey("frame", treeHash, opts)
}
