// Package audit defines the change-set record written for every audited
// entity mutation, together with the codec that packs before/after
// property snapshots into compact text blobs.
//
// The record carries exactly two nullable text columns (old state, new
// state) plus scalar metadata. An empty snapshot is stored as an absent
// blob, never as an empty-object token: absence and "no change" are the
// same thing, and a missing record is something else entirely.
//
// The codec offers three write paths. The bulk path serializes arbitrary
// key/value mappings. The slice path takes parallel column/value slices
// and, for three entries or fewer, builds the blob by direct
// concatenation since the fixed overhead of general serialization
// dominates at that size. The raw path accepts pre-serialized blobs
// verbatim. Reads come in full (materialize the whole mapping) and
// selective (scan for one key) flavors; the two always agree.
//
// Reads never fail: a malformed blob decodes to an empty mapping. The
// audit subsystem observes the primary transaction and must never be
// able to fail it.
package audit
