package highlight

import (
	"fmt"
	"strings"
)

// Type is the closed enumeration of highlight kinds.
type Type string

const (
	TypeSearch         Type = "search"
	TypeLineage        Type = "lineage"
	TypeSelection      Type = "selection"
	TypeCousinMarriage Type = "cousin-marriage"
	TypeRelationship   Type = "relationship"
	TypeSiblingGroup   Type = "sibling-group"
)

// Kind groups types by how many chains they resolve.
type Kind int

const (
	KindUnknown Kind = iota
	KindSingle
	KindDual
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindDual:
		return "dual"
	case KindMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// Types lists every known type in declaration order.
func Types() []Type {
	return []Type{TypeSearch, TypeLineage, TypeSelection, TypeCousinMarriage, TypeRelationship, TypeSiblingGroup}
}

// ParseType converts a string to a Type. Matching ignores case and
// surrounding whitespace, and accepts underscores for dashes.
func ParseType(s string) (Type, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, t := range Types() {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown highlight type %q", s)
}

// Kind returns the path shape of t.
func (t Type) Kind() Kind {
	switch t {
	case TypeSearch, TypeLineage, TypeSelection:
		return KindSingle
	case TypeCousinMarriage, TypeRelationship:
		return KindDual
	case TypeSiblingGroup:
		return KindMulti
	default:
		return KindUnknown
	}
}

// Known reports whether t is part of the enumeration.
func (t Type) Known() bool { return t.Kind() != KindUnknown }

// Priority orders highlights sharing an edge. Higher priorities are drawn
// later, so search results always end up on top.
func (t Type) Priority() int {
	switch t {
	case TypeSearch:
		return 2
	case TypeSelection:
		return 1
	default:
		return 0
	}
}

func (t Type) String() string { return string(t) }
