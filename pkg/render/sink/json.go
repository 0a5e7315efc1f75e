package sink

import (
	"encoding/json"

	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/stroke"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	strokes bool
	indent  bool
}

// WithJSONStrokes includes the expanded glow strokes alongside the segments,
// for clients that do not implement the layer stack themselves.
func WithJSONStrokes() JSONOption { return func(r *jsonRenderer) { r.strokes = true } }

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	*render.Frame
	Strokes []stroke.Stroke `json:"strokes,omitempty"`
}

// RenderJSON serializes the frame. A nil frame is rendered as an empty one.
func RenderJSON(f *render.Frame, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	if f == nil {
		f = &render.Frame{}
	}
	out := jsonOutput{Frame: f}
	if out.Segments == nil {
		out.Frame = shallowWithSegments(f)
	}
	if r.strokes {
		out.Strokes = render.Strokes(f)
	}
	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// shallowWithSegments returns a copy of f whose nil segment list encodes as [].
func shallowWithSegments(f *render.Frame) *render.Frame {
	cp := *f
	cp.Segments = []render.Segment{}
	return &cp
}
