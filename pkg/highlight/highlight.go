// Package highlight holds the lifecycle of active highlight requests.
//
// All transitions are pure: a [Registry] takes a [State] and returns a new
// one, never mutating its input. The registry validates only the shape of a
// [Definition]. Whether the targets exist in the current tree, and how many
// highlights may be active at once, is decided by the caller before it calls
// [Registry.Add]; different views may use different limits.
package highlight

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Definition is a request to emphasize one or more ancestry chains.
type Definition struct {
	Type    Type     `json:"type"`
	Targets []string `json:"targets"`
}

// Validate checks the definition shape: a known type and the target count
// that type expects (one for single, two for dual, at least two for multi).
func (d Definition) Validate() error {
	want := ""
	switch d.Type.Kind() {
	case KindSingle:
		if len(d.Targets) != 1 {
			want = "exactly 1 target"
		}
	case KindDual:
		if len(d.Targets) != 2 {
			want = "exactly 2 targets"
		}
	case KindMulti:
		if len(d.Targets) < 2 {
			want = "at least 2 targets"
		}
	default:
		return errors.New(errors.ErrCodeInvalidHighlight, "unknown highlight type: %q", d.Type)
	}
	if want != "" {
		return errors.New(errors.ErrCodeInvalidHighlight, "%s highlight needs %s", d.Type, want)
	}
	for _, id := range d.Targets {
		if err := errors.ValidateNodeID(id); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidHighlight, err, "invalid highlight target")
		}
	}
	return nil
}

// Highlight is a definition plus its registry-assigned id.
type Highlight struct {
	ID string `json:"id"`
	Definition
}

// State is an immutable, insertion-ordered set of highlights. The zero value
// is the empty state.
type State struct {
	items []Highlight
}

// NewState rebuilds a state from previously issued highlights, in order.
// Definitions are not validated; compilation reports bad entries instead.
func NewState(hs ...Highlight) State {
	if len(hs) == 0 {
		return State{}
	}
	items := make([]Highlight, len(hs))
	for i, h := range hs {
		items[i] = h.clone()
	}
	return State{items: items}
}

func (h Highlight) clone() Highlight {
	return Highlight{ID: h.ID, Definition: Definition{Type: h.Type, Targets: slices.Clone(h.Targets)}}
}

// Len returns the number of active highlights.
func (s State) Len() int { return len(s.items) }

// IDs returns highlight ids in insertion order.
func (s State) IDs() []string {
	ids := make([]string, len(s.items))
	for i, h := range s.items {
		ids[i] = h.ID
	}
	return ids
}

// Get returns a copy of the highlight with the given id.
func (s State) Get(id string) (Highlight, bool) {
	for _, h := range s.items {
		if h.ID == id {
			return h.clone(), true
		}
	}
	return Highlight{}, false
}

// Contains reports whether id is active.
func (s State) Contains(id string) bool {
	return slices.ContainsFunc(s.items, func(h Highlight) bool { return h.ID == id })
}

// All returns a copy of the highlights in insertion order. Callers may
// modify the result.
func (s State) All() []Highlight {
	out := make([]Highlight, len(s.items))
	for i, h := range s.items {
		out[i] = h.clone()
	}
	return out
}

// Registry performs state transitions.
type Registry struct {
	// NewID generates highlight ids. Nil means uuid.NewString.
	NewID func() string
}

func (r Registry) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

// Add returns s with a new highlight appended. An invalid definition returns
// s unchanged; callers detect failure by the absence of a new id.
func (r Registry) Add(s State, def Definition) State {
	next, _, _ := r.TryAdd(s, def)
	return next
}

// TryAdd is Add that also reports the assigned id, or why none was assigned.
func (r Registry) TryAdd(s State, def Definition) (State, string, error) {
	if err := def.Validate(); err != nil {
		return s, "", err
	}
	h := Highlight{
		ID:         r.newID(),
		Definition: Definition{Type: def.Type, Targets: slices.Clone(def.Targets)},
	}
	items := make([]Highlight, len(s.items), len(s.items)+1)
	copy(items, s.items)
	return State{items: append(items, h)}, h.ID, nil
}

// Remove returns s without the highlight id. Unknown ids are a no-op.
func (r Registry) Remove(s State, id string) State {
	i := slices.IndexFunc(s.items, func(h Highlight) bool { return h.ID == id })
	if i < 0 {
		return s
	}
	if len(s.items) == 1 {
		return State{}
	}
	items := make([]Highlight, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	return State{items: items}
}

// Clear returns the empty state.
func (r Registry) Clear(State) State { return State{} }
