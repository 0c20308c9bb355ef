package valueobject

import (
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// extractionPlan holds the exported field indices of a value-object type
// in declaration order. A disabled plan means the planner gave up on the
// type and all access goes through the reflective deep path.
type extractionPlan struct {
	fields   []int
	disabled bool
}

// planRegistry is the process-wide plan cache. Entries are inserted at
// most once meaningfully per type; a type flips from unknown to either
// planned or disabled and stays there until ClearCache.
type planRegistry struct {
	plans     sync.Map // reflect.Type -> *extractionPlan
	group     singleflight.Group
	optimized atomic.Int64
	disabled  atomic.Int64
}

var defaultRegistry = &planRegistry{}

// planFor returns the extraction plan for t, building it on first
// encounter. Concurrent first builds are collapsed; whichever plan lands
// in the cache wins, which is safe because plans for a type are
// interchangeable. The flight key is t.String(), which can collide for
// same-named types in different packages, so the result is always taken
// from the type-keyed cache, never from the flight itself.
func (r *planRegistry) planFor(t reflect.Type) *extractionPlan {
	for {
		if p, ok := r.plans.Load(t); ok {
			return p.(*extractionPlan)
		}
		r.group.Do(t.String(), func() (any, error) {
			if _, ok := r.plans.Load(t); ok {
				return nil, nil
			}
			p := buildPlan(t)
			if _, loaded := r.plans.LoadOrStore(t, p); !loaded {
				if p.disabled {
					r.disabled.Add(1)
				} else {
					r.optimized.Add(1)
				}
			}
			return nil, nil
		})
	}
}

// buildPlan walks the exported fields of t in declaration order. Fields
// whose static type is an interface, or an enumerable other than string,
// need recursive reflective handling the fast path does not attempt, so
// their presence disables the whole type. A panic during the walk also
// disables the type; the failure is never surfaced to the caller.
func buildPlan(t reflect.Type) (p *extractionPlan) {
	defer func() {
		if recover() != nil {
			p = &extractionPlan{disabled: true}
		}
	}()

	if t.Kind() != reflect.Struct {
		return &extractionPlan{disabled: true}
	}

	var fields []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Interface, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Func:
			return &extractionPlan{disabled: true}
		}
		fields = append(fields, i)
	}
	return &extractionPlan{fields: fields}
}

// CacheStats reports how many value-object types have been planned and
// how many fell back to reflection.
type CacheStats struct {
	OptimizedTypes int64 `json:"optimized_types"`
	DisabledTypes  int64 `json:"disabled_types"`
	TotalTypes     int64 `json:"total_types"`
}

// Stats returns cumulative plan-cache counters.
func Stats() CacheStats {
	opt := defaultRegistry.optimized.Load()
	dis := defaultRegistry.disabled.Load()
	return CacheStats{
		OptimizedTypes: opt,
		DisabledTypes:  dis,
		TotalTypes:     opt + dis,
	}
}

// ClearCache drops every cached plan. Safe to call while comparisons are
// in flight; types are simply re-planned on next use.
func ClearCache() {
	defaultRegistry.plans.Range(func(k, _ any) bool {
		defaultRegistry.plans.Delete(k)
		return true
	})
	defaultRegistry.optimized.Store(0)
	defaultRegistry.disabled.Store(0)
}
