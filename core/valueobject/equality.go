package valueobject

import (
	"math"
	"reflect"
)

// Componenter lets a value object hand over its equality components
// directly, bypassing extraction entirely. Components must be returned
// in a stable order; the order is part of the object's identity.
type Componenter interface {
	EqualityComponents() []any
}

// Equals reports structural equality between two value-object instances.
// Both operands must share the same concrete type; nil compares equal
// only to nil. Never panics for well-formed inputs.
func Equals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if ca, ok := a.(Componenter); ok {
		return componentsEqual(ca.EqualityComponents(), b.(Componenter).EqualityComponents())
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	for va.Kind() == reflect.Pointer {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		va, vb = va.Elem(), vb.Elem()
	}
	if va.Kind() != reflect.Struct {
		return reflect.DeepEqual(va.Interface(), vb.Interface())
	}

	p := defaultRegistry.planFor(va.Type())
	if p.disabled {
		return reflect.DeepEqual(va.Interface(), vb.Interface())
	}
	for _, i := range p.fields {
		if !componentEqual(va.Field(i), vb.Field(i)) {
			return false
		}
	}
	return true
}

// componentEqual compares a single component pair. Struct and pointer
// components are nested value objects and go back through the engine;
// everything a plan admits besides those is a comparable primitive.
func componentEqual(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Struct, reflect.Pointer:
		return Equals(a.Interface(), b.Interface())
	default:
		return a.Interface() == b.Interface()
	}
}

func componentsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Hashing is order-sensitive: component order is part of identity, so
// the combiner must not commute.
const (
	hashSeed  uint64 = 17
	hashPrime uint64 = 31
)

// HashOf returns a structural hash consistent with Equals: equal objects
// hash equal for the lifetime of the process.
func HashOf(v any) uint64 {
	if v == nil {
		return 0
	}
	if c, ok := v.(Componenter); ok {
		h := hashSeed
		for _, comp := range c.EqualityComponents() {
			h = h*hashPrime + hashComponent(reflect.ValueOf(comp))
		}
		return h
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return hashComponent(rv)
	}

	t := rv.Type()
	p := defaultRegistry.planFor(t)
	h := hashSeed
	if p.disabled {
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			h = h*hashPrime + hashComponent(rv.Field(i))
		}
		return h
	}
	for _, i := range p.fields {
		h = h*hashPrime + hashComponent(rv.Field(i))
	}
	return h
}

func hashComponent(v reflect.Value) uint64 {
	if !v.IsValid() {
		return 0
	}
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 2
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return mix(uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return mix(v.Uint())
	case reflect.Float32, reflect.Float64:
		return mix(math.Float64bits(v.Float()))
	case reflect.String:
		return hashString(v.String())
	case reflect.Struct:
		return HashOf(v.Interface())
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return 0
		}
		return hashComponent(v.Elem())
	case reflect.Slice, reflect.Array:
		h := hashSeed
		for i := 0; i < v.Len(); i++ {
			h = h*hashPrime + hashComponent(v.Index(i))
		}
		return h
	case reflect.Map:
		// Map iteration order is random; combine entries commutatively.
		var h uint64
		iter := v.MapRange()
		for iter.Next() {
			h += hashComponent(iter.Key())*hashPrime + hashComponent(iter.Value())
		}
		return h
	default:
		return 0
	}
}

// hashString is FNV-1a, inlined to keep the hot path allocation-free.
func hashString(s string) uint64 {
	const (
		offset64 uint64 = 14695981039346656037
		prime64  uint64 = 1099511628211
	)
	h := offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// mix finalizes a 64-bit integer so adjacent inputs spread apart
// (splitmix64 finalizer).
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
