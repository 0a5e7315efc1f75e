// Package paths resolves ancestry chains over a tree snapshot.
//
// A path starts at a node and walks upward one parent at a time until a node
// has no placed parent. The Resolver memoizes results per graph version: when
// it is handed a graph with a different [tree.Graph.Version], the whole cache
// is dropped before the lookup, so results never outlive the layout they were
// computed from.
//
// Corrupt data never loops: a repeated ancestor stops the walk and the
// partial chain is returned.
package paths

import (
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Preference selects which parent reference a walk follows.
type Preference int

const (
	// PreferFather follows the father reference when it names a placed node,
	// falling back to the mother.
	PreferFather Preference = iota
	// PreferMother reverses the order for matrilineal trees.
	PreferMother
)

// Dual is the result of resolving two chains toward their common ancestor.
type Dual struct {
	// Paths holds the full chain for each target, nearest to farthest.
	Paths [2][]string `json:"paths"`
	// Intersection is the first id of Paths[0] that also appears in Paths[1].
	Intersection string `json:"intersection,omitempty"`
	// Found reports whether an intersection exists.
	Found bool `json:"found"`
}

// Truncated returns both chains cut after the common ancestor. When no
// ancestor was found the full chains are returned.
func (d Dual) Truncated() [2][]string {
	if !d.Found {
		return d.Paths
	}
	var out [2][]string
	for i, p := range d.Paths {
		for j, id := range p {
			if id == d.Intersection {
				out[i] = p[:j+1]
				break
			}
		}
	}
	return out
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithParentPreference sets which parent reference is followed first.
func WithParentPreference(p Preference) Option {
	return func(r *Resolver) { r.pref = p }
}

type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Resolver computes and caches ancestry chains. A Resolver is not safe for
// concurrent use.
type Resolver struct {
	pref    Preference
	version uint64
	single  map[string][]string
	dual    map[pairKey]Dual
}

// New creates a resolver with an empty cache.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	r.reset(0)
	return r
}

// Invalidate drops every cached result.
func (r *Resolver) Invalidate() { r.reset(0) }

// Cached returns the number of memoized single and dual results.
func (r *Resolver) Cached() (single, dual int) { return len(r.single), len(r.dual) }

func (r *Resolver) reset(version uint64) {
	r.version = version
	r.single = make(map[string][]string)
	r.dual = make(map[pairKey]Dual)
}

func (r *Resolver) sync(g *tree.Graph) {
	if v := g.Version(); v != r.version {
		r.reset(v)
	}
}

// Path returns the chain from id up to its farthest placed ancestor,
// starting with id itself. An id absent from g yields an empty path. A
// root-level node yields a path of length one; callers treat anything shorter
// than two as nothing to draw.
//
// The returned slice is shared with the cache and must not be modified.
func (r *Resolver) Path(g *tree.Graph, id string) []string {
	r.sync(g)
	if p, ok := r.single[id]; ok {
		observability.Engine().OnPathCacheHit("single")
		return p
	}
	observability.Engine().OnPathCacheMiss("single")

	p := r.walk(g, id)
	r.single[id] = p
	return p
}

// DualPaths resolves both chains and their nearest common ancestor. The
// result is symmetric in its cache key but not in its layout: Paths[0]
// always belongs to a.
func (r *Resolver) DualPaths(g *tree.Graph, a, b string) Dual {
	r.sync(g)
	key := newPairKey(a, b)
	if d, ok := r.dual[key]; ok {
		observability.Engine().OnPathCacheHit("dual")
		if key.a != a {
			d.Paths[0], d.Paths[1] = d.Paths[1], d.Paths[0]
		}
		return d
	}
	observability.Engine().OnPathCacheMiss("dual")

	d := Dual{Paths: [2][]string{r.Path(g, a), r.Path(g, b)}}
	d.Intersection, d.Found = intersect(d.Paths[0], d.Paths[1])

	stored := d
	if key.a != a {
		stored.Paths[0], stored.Paths[1] = stored.Paths[1], stored.Paths[0]
	}
	r.dual[key] = stored
	return d
}

// Nodes maps ids to nodes of g, skipping ids that are not placed.
func Nodes(g *tree.Graph, ids []string) []tree.Node {
	out := make([]tree.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// Parent returns the parent a walk from n follows under pref, if any.
func Parent(g *tree.Graph, n tree.Node, pref Preference) (string, bool) {
	first, second := n.FatherID, n.MotherID
	if pref == PreferMother {
		first, second = second, first
	}
	if first != "" && g.Has(first) {
		return first, true
	}
	if second != "" && g.Has(second) {
		return second, true
	}
	return "", false
}

func (r *Resolver) walk(g *tree.Graph, id string) []string {
	n, ok := g.Node(id)
	if !ok {
		return []string{}
	}

	path := []string{id}
	seen := map[string]bool{id: true}
	for {
		pid, ok := Parent(g, n, r.pref)
		if !ok || seen[pid] {
			return path
		}
		seen[pid] = true
		path = append(path, pid)
		n, _ = g.Node(pid)
	}
}

func intersect(a, b []string) (string, bool) {
	in := make(map[string]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	for _, id := range a {
		if in[id] {
			return id, true
		}
	}
	return "", false
}
