// Package entity provides the identifier-based equality foundation for
// domain entities, including resolution of ORM-generated proxy subtypes
// to their canonical domain type.
//
// An entity's identity is (real type, ID). A transient entity, one whose
// ID still holds the zero value, equals nothing but itself.
//
// # Proxy resolution
//
// ORM layers may deliver entities wrapped in a generated subtype used
// for lazy loading and change tracking: a struct that embeds the domain
// type as its first field and lives in a recognizable package path (or
// carries a recognizable name marker). Resolution unwraps exactly one
// level; anything that does not match the pattern passes through
// unchanged rather than failing.
//
// Resolved types are kept in a bounded cache. Once the cache is full new
// types are still resolved correctly, just never stored, trading
// freshness for hot-path stability. Hit/miss counters are atomic so the
// comparison path stays contention-free.
package entity
