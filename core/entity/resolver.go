package entity

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	// DefaultCapacity bounds the number of distinct runtime types the
	// resolver caches. At capacity new types resolve correctly but are
	// not stored.
	DefaultCapacity = 1024

	// DefaultProxyPathSuffix marks packages that hold generated proxy
	// subtypes.
	DefaultProxyPathSuffix = "/proxies"

	// DefaultProxyMarker marks generated proxy type names.
	DefaultProxyMarker = "Proxy_"
)

// resolution is a cached mapping from a runtime type to its canonical
// domain type. Any resolution computed for a type is interchangeable
// with any other, so population races need no lock.
type resolution struct {
	real  reflect.Type
	proxy bool
}

// Resolver maps runtime types to their canonical domain type, collapsing
// one level of generated proxy subtyping. It is safe for concurrent use.
type Resolver struct {
	capacity   int
	pathSuffix string
	marker     string

	entries sync.Map // reflect.Type -> resolution
	size    atomic.Int64
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithProxyPathSuffix overrides the package-path suffix that identifies
// proxy packages.
func WithProxyPathSuffix(suffix string) Option {
	return func(r *Resolver) { r.pathSuffix = suffix }
}

// WithProxyMarker overrides the type-name marker that identifies proxy
// types.
func WithProxyMarker(marker string) Option {
	return func(r *Resolver) { r.marker = marker }
}

// NewResolver creates a resolver with the given cache capacity.
// Non-positive capacities fall back to DefaultCapacity, and so do empty
// suffix/marker options: an empty pattern would match every struct with
// an embedded first field and unwrap non-proxies.
func NewResolver(capacity int, opts ...Option) *Resolver {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Resolver{capacity: capacity}
	for _, opt := range opts {
		opt(r)
	}
	if r.pathSuffix == "" {
		r.pathSuffix = DefaultProxyPathSuffix
	}
	if r.marker == "" {
		r.marker = DefaultProxyMarker
	}
	return r
}

// RealType resolves the canonical domain type for a runtime type.
// Pointer types are dereferenced first.
func (r *Resolver) RealType(t reflect.Type) reflect.Type {
	return r.lookup(t).real
}

// IsProxy reports whether the runtime type is a recognized proxy subtype.
func (r *Resolver) IsProxy(t reflect.Type) bool {
	return r.lookup(t).proxy
}

func (r *Resolver) lookup(t reflect.Type) resolution {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if e, ok := r.entries.Load(t); ok {
		r.hits.Add(1)
		return e.(resolution)
	}
	r.misses.Add(1)
	res := r.resolve(t)
	if r.size.Load() < int64(r.capacity) {
		if _, loaded := r.entries.LoadOrStore(t, res); !loaded {
			r.size.Add(1)
		}
	}
	return res
}

// resolve computes the mapping on the cold path. Proxies are exactly one
// level deep: the real type is the embedded first field. Anything that
// does not match the pattern passes through unchanged.
func (r *Resolver) resolve(t reflect.Type) resolution {
	if t.Kind() != reflect.Struct || t.NumField() == 0 {
		return resolution{real: t}
	}
	if !strings.HasSuffix(t.PkgPath(), r.pathSuffix) && !strings.Contains(t.Name(), r.marker) {
		return resolution{real: t}
	}
	f := t.Field(0)
	if !f.Anonymous || f.Type.Kind() != reflect.Struct {
		return resolution{real: t}
	}
	return resolution{real: f.Type, proxy: true}
}

// ResolverStats reports cumulative cache counters.
type ResolverStats struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
	Size     int64   `json:"size"`
	Capacity int     `json:"capacity"`
}

// Stats returns a snapshot of the resolver's counters.
func (r *Resolver) Stats() ResolverStats {
	hits, misses := r.hits.Load(), r.misses.Load()
	s := ResolverStats{
		Hits:     hits,
		Misses:   misses,
		Size:     r.size.Load(),
		Capacity: r.capacity,
	}
	if total := hits + misses; total > 0 {
		s.HitRatio = float64(hits) / float64(total)
	}
	return s
}

// Clear drops all cached resolutions. Safe to call while lookups are in
// flight; subsequent lookups repopulate lazily.
func (r *Resolver) Clear() {
	r.entries.Range(func(k, _ any) bool {
		r.entries.Delete(k)
		return true
	})
	r.size.Store(0)
}

// The default resolver is created at init and may be replaced once at
// startup when configuration demands different bounds.
var defaultResolver atomic.Pointer[Resolver]

func init() {
	defaultResolver.Store(NewResolver(DefaultCapacity))
}

// Default returns the process-wide resolver.
func Default() *Resolver { return defaultResolver.Load() }

// SetDefault replaces the process-wide resolver. Intended for startup
// wiring; in-flight comparisons keep using the resolver they loaded.
func SetDefault(r *Resolver) {
	if r != nil {
		defaultResolver.Store(r)
	}
}

// RealTypeOf resolves a runtime type through the default resolver.
func RealTypeOf(t reflect.Type) reflect.Type { return Default().RealType(t) }

// CacheStats returns the default resolver's counters.
func CacheStats() ResolverStats { return Default().Stats() }

// ClearCache drops the default resolver's cached resolutions.
func ClearCache() { Default().Clear() }
