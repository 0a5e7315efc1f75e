// Package cache stores rendered artifacts keyed by tree content, highlight
// set, viewport and output format.
//
// Three backends implement [Cache]: [NullCache] disables caching, [FileCache]
// keeps entries on local disk for the CLI, and [RedisCache] shares entries
// between server replicas. [New] selects one from [Options].
//
// Keys come from a [Keyer]. [DefaultKeyer] hashes every input that changes
// the rendered bytes; [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/kintree/pkg/observability"
)

// Cache is a byte store with per-entry expiry. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 24 * time.Hour

// Backends accepted by [New].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Dir is the FileCache directory. Empty means [DefaultDir].
	Dir string
	// Redis connection.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New opens the backend named in opts.
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case BackendRedis:
		rc, err := NewRedisCache(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// DefaultDir returns the per-user artifact cache directory.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kintree"), nil
}

// Instrument reports hits, misses and writes on c to the registered cache
// hooks, labelled with keyType.
func Instrument(c Cache, keyType string) Cache {
	return &instrumented{Cache: c, keyType: keyType}
}

type instrumented struct {
	Cache
	keyType string
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := i.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, i.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, i.keyType)
		}
	}
	return data, hit, err
}

func (i *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := i.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, i.keyType, len(data))
	return nil
}
