package entity

import (
	"reflect"
)

// Entity is the embeddable base for identifier-bearing domain types.
// The identifier is assigned on first persist and never reassigned.
type Entity[T comparable] struct {
	ID T `gorm:"primaryKey;column:id" json:"id"`
}

// GetID returns the persistent identifier.
func (e Entity[T]) GetID() T { return e.ID }

// IsTransient reports whether the entity has not yet been assigned a
// persisted identifier.
func (e Entity[T]) IsTransient() bool {
	var zero T
	return e.ID == zero
}

// Identifiable is satisfied by any type embedding Entity[T].
type Identifiable[T comparable] interface {
	GetID() T
	IsTransient() bool
}

// Equal reports identity equality between two entities sharing the same
// identifier type: both non-nil, both non-transient, same resolved real
// type, same ID. A transient entity equals nothing except the very same
// instance.
func Equal[T comparable](a, b Identifiable[T]) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Pointer && vb.Kind() == reflect.Pointer &&
		va.Type() == vb.Type() && va.Pointer() == vb.Pointer() {
		return true
	}
	if a.IsTransient() || b.IsTransient() {
		return false
	}
	if RealTypeOf(va.Type()) != RealTypeOf(vb.Type()) {
		return false
	}
	return a.GetID() == b.GetID()
}
