package highlight

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/kintree/pkg/errors"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("h%d", n)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"search", TypeSearch, false},
		{" Lineage ", TypeLineage, false},
		{"cousin_marriage", TypeCousinMarriage, false},
		{"sibling-group", TypeSiblingGroup, false},
		{"rainbow", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeKindAndPriority(t *testing.T) {
	for _, typ := range Types() {
		if !typ.Known() {
			t.Errorf("%s.Known() = false, want true", typ)
		}
		if typ != TypeSearch && typ.Priority() >= TypeSearch.Priority() {
			t.Errorf("%s.Priority() = %d, want below search", typ, typ.Priority())
		}
	}
	if k := Type("bogus").Kind(); k != KindUnknown {
		t.Errorf("Kind() = %v, want unknown", k)
	}
	if k := TypeRelationship.Kind(); k != KindDual {
		t.Errorf("Kind() = %v, want dual", k)
	}
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"lineage", Definition{Type: TypeLineage, Targets: []string{"a"}}, false},
		{"cousin marriage", Definition{Type: TypeCousinMarriage, Targets: []string{"a", "b"}}, false},
		{"sibling group", Definition{Type: TypeSiblingGroup, Targets: []string{"a", "b", "c"}}, false},
		{"unknown type", Definition{Type: "rainbow", Targets: []string{"a"}}, true},
		{"single with two", Definition{Type: TypeSearch, Targets: []string{"a", "b"}}, true},
		{"dual with one", Definition{Type: TypeRelationship, Targets: []string{"a"}}, true},
		{"multi with one", Definition{Type: TypeSiblingGroup, Targets: []string{"a"}}, true},
		{"empty target", Definition{Type: TypeLineage, Targets: []string{""}}, true},
		{"no targets", Definition{Type: TypeLineage}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidHighlight) {
				t.Errorf("Validate() code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidHighlight)
			}
		})
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	r := Registry{NewID: seqIDs()}
	var s State
	s = r.Add(s, Definition{Type: TypeLineage, Targets: []string{"a"}})
	s = r.Add(s, Definition{Type: TypeSearch, Targets: []string{"b"}})

	next, id, err := r.TryAdd(s, Definition{Type: TypeRelationship, Targets: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("TryAdd() error = %v", err)
	}
	if next.Len() != 3 || s.Len() != 2 {
		t.Fatalf("Len() = %d (before %d), want 3 (before 2)", next.Len(), s.Len())
	}

	back := r.Remove(next, id)
	if !reflect.DeepEqual(back, s) {
		t.Errorf("Remove(Add(s)) = %+v, want %+v", back, s)
	}
}

func TestRoundTripFromEmpty(t *testing.T) {
	r := Registry{}
	var s State
	next, id, err := r.TryAdd(s, Definition{Type: TypeSelection, Targets: []string{"x"}})
	if err != nil || id == "" {
		t.Fatalf("TryAdd() = %q, %v", id, err)
	}
	if back := r.Remove(next, id); !reflect.DeepEqual(back, s) {
		t.Errorf("Remove(Add(empty)) = %+v, want empty", back)
	}
}

func TestAddInvalidLeavesStateUnchanged(t *testing.T) {
	r := Registry{NewID: seqIDs()}
	s := r.Add(State{}, Definition{Type: TypeLineage, Targets: []string{"a"}})

	got := r.Add(s, Definition{Type: "rainbow", Targets: []string{"a"}})
	if !reflect.DeepEqual(got.IDs(), s.IDs()) {
		t.Errorf("IDs() = %v, want %v", got.IDs(), s.IDs())
	}
}

func TestAddDoesNotMutateInput(t *testing.T) {
	r := Registry{NewID: seqIDs()}
	s := r.Add(State{}, Definition{Type: TypeLineage, Targets: []string{"a"}})
	a := r.Add(s, Definition{Type: TypeLineage, Targets: []string{"b"}})
	b := r.Add(s, Definition{Type: TypeLineage, Targets: []string{"c"}})

	ha, _ := a.Get(a.IDs()[1])
	hb, _ := b.Get(b.IDs()[1])
	if ha.Targets[0] != "b" || hb.Targets[0] != "c" {
		t.Errorf("branches share storage: %v, %v", ha.Targets, hb.Targets)
	}
	if s.Len() != 1 {
		t.Errorf("input Len() = %d, want 1", s.Len())
	}
}

func TestRemoveAndClear(t *testing.T) {
	r := Registry{NewID: seqIDs()}
	var s State
	for _, id := range []string{"a", "b", "c"} {
		s = r.Add(s, Definition{Type: TypeLineage, Targets: []string{id}})
	}

	if got := r.Remove(s, "missing"); got.Len() != 3 {
		t.Errorf("Remove(missing) Len() = %d, want 3", got.Len())
	}
	got := r.Remove(s, "h2")
	if want := []string{"h1", "h3"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Errorf("IDs() = %v, want %v", got.IDs(), want)
	}
	if got.Contains("h2") {
		t.Error("Contains(h2) = true after Remove")
	}
	if r.Clear(s).Len() != 0 {
		t.Error("Clear() left highlights behind")
	}
}

func TestNewState(t *testing.T) {
	src := []Highlight{{ID: "x", Definition: Definition{Type: TypeLineage, Targets: []string{"a"}}}}
	s := NewState(src...)
	src[0].Targets[0] = "changed"

	h, ok := s.Get("x")
	if !ok || h.Targets[0] != "a" {
		t.Errorf("Get(x) = %+v, %v, want target a", h, ok)
	}
	if !reflect.DeepEqual(NewState(), State{}) {
		t.Error("NewState() is not the empty state")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := NewState(Highlight{ID: "x", Definition: Definition{Type: TypeCousinMarriage, Targets: []string{"a", "b"}}})

	h, _ := s.Get("x")
	h.Targets[0] = "mutated"
	all := s.All()
	all[0].Targets[1] = "mutated"
	all[0].ID = "y"

	got, ok := s.Get("x")
	if !ok {
		t.Fatal("Get(x) ok = false after mutating copies")
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(got.Targets, want) {
		t.Errorf("Targets = %v, want %v", got.Targets, want)
	}
}
