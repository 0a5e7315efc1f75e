package cache

// ScopedKeyer prefixes every key from an inner Keyer, isolating several
// deployments that share one Redis database.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "kintree:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(treeHash, opts)
}

// FrameKey implements Keyer.
func (k *ScopedKeyer) FrameKey(treeHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(treeHash, opts)
}
