// Package valueobject implements structural equality and hashing for
// immutable value objects.
//
// A value object's identity is the ordered sequence of its exported
// component fields. Two instances are equal when they share the same
// concrete type and every component compares equal, with nested value
// objects compared recursively through the same engine.
//
// # Extraction plans
//
// The first comparison of a type builds an extraction plan: the list of
// exported field indices walked in declaration order. Subsequent
// comparisons are a cache lookup plus direct field access, no per-call
// type inspection. Types the planner cannot specialize (interface-typed
// fields, or enumerable fields other than strings) are marked disabled
// once and permanently compared through the reflective deep path. Plan
// build failures are swallowed; they degrade latency, never correctness.
//
// # Concurrency
//
// The plan cache is process-wide shared state. Population is
// insert-if-absent and races are tolerated: any plan built for a type is
// interchangeable with any other. Concurrent first builds of the same
// type are collapsed with singleflight, following the stampede
// protection used elsewhere in this codebase.
//
// # Usage
//
//	type Money struct {
//	    Amount   int
//	    Currency string
//	}
//
//	valueobject.Equals(Money{100, "USD"}, Money{100, "USD"}) // true
//	valueobject.HashOf(Money{100, "USD"})                    // stable within the process
package valueobject
