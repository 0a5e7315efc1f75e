package render

import (
	"time"

	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/render/stroke"
	"github.com/matzehuels/kintree/pkg/tree"
)

// QualityTier is the level of detail selected for a frame.
type QualityTier = stroke.Tier

const (
	TierFull    = stroke.TierFull
	TierReduced = stroke.TierReduced
	TierMinimal = stroke.TierMinimal
)

// BlendMode is how a segment's highlights combine.
type BlendMode = stroke.Blend

const (
	BlendNormal   = stroke.BlendNormal
	BlendAdditive = stroke.BlendAdditive
)

// Diagnostic codes.
const (
	DiagUnknownType  = "UNKNOWN_TYPE"
	DiagNodeNotFound = "NODE_NOT_FOUND"
	DiagEmptyPath    = "EMPTY_PATH"
	DiagNoAncestor   = "NO_COMMON_ANCESTOR"
	DiagUnsupported  = "UNSUPPORTED"
)

// SegmentHighlight is one highlight colouring a segment.
type SegmentHighlight struct {
	HighlightID string         `json:"highlight_id"`
	Type        highlight.Type `json:"type"`
	Chain       int            `json:"chain"`
	Band        int            `json:"band"`
	Color       string         `json:"color"`
	Opacity     float64        `json:"opacity"`
	Width       float64        `json:"width"`
}

// Segment is one highlighted parent-to-child edge.
type Segment struct {
	ParentID     string             `json:"parent_id"`
	SpouseID     string             `json:"spouse_id,omitempty"`
	ChildID      string             `json:"child_id"`
	Points       []tree.Point       `json:"points"`
	Highlights   []SegmentHighlight `json:"highlights"`
	Overlapping  bool               `json:"overlapping"`
	Blend        BlendMode          `json:"blend"`
	Tier         QualityTier        `json:"tier"`
	BlendedColor string             `json:"blended_color"`
}

// Top returns the highlight drawn last on the segment.
func (s Segment) Top() SegmentHighlight {
	return s.Highlights[len(s.Highlights)-1]
}

// Diagnostic explains why a highlight contributed nothing.
type Diagnostic struct {
	HighlightID string `json:"highlight_id"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

// Stats summarizes a compilation.
type Stats struct {
	Highlights  int           `json:"highlights"`  // active highlights
	Resolved    int           `json:"resolved"`    // highlights that claimed at least one edge
	Claimed     int           `json:"claimed"`     // distinct highlighted edges before culling
	Segments    int           `json:"segments"`    // segments emitted
	Overlapping int           `json:"overlapping"` // emitted segments with 2+ highlights
	Culled      int           `json:"culled"`      // highlighted edges outside the viewport
	Duration    time.Duration `json:"duration_ns"`
}

// Frame is the compiled draw list for one graph, highlight state and viewport.
type Frame struct {
	Version     uint64       `json:"version"`
	Tier        QualityTier  `json:"tier"`
	Viewport    *tree.Rect   `json:"viewport,omitempty"`
	Segments    []Segment    `json:"segments"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Stats       Stats        `json:"stats"`
}

// Empty reports whether the frame has nothing to draw.
func (f *Frame) Empty() bool { return f == nil || len(f.Segments) == 0 }

// Strokes expands every segment into its glow stack. Overlapping segments
// emit each contributing highlight on the same geometry with additive
// blending, in draw order.
func Strokes(f *Frame) []stroke.Stroke {
	if f.Empty() {
		return nil
	}
	var out []stroke.Stroke
	for _, seg := range f.Segments {
		for _, h := range seg.Highlights {
			for _, s := range stroke.Layers(seg.Tier, seg.Points, h.Width, h.Color) {
				s.HighlightID = h.HighlightID
				s.ParentID, s.ChildID = seg.ParentID, seg.ChildID
				s.Opacity *= h.Opacity
				s.Blend = seg.Blend
				out = append(out, s)
			}
		}
	}
	return out
}
