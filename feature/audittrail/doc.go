// Package audittrail records an audit change set for every entity
// mutation flowing through GORM.
//
// A GORM plugin hooks the create, update and delete pipelines and writes
// one ChangeSet row per mutated entity, attributing the acting user from
// the request context. Recording is strictly best-effort: every failure
// is logged and swallowed, so the audited transaction can never be
// failed by its own audit trail.
//
// Oversized state blobs are offloaded to archive storage and replaced by
// an archive:// reference; reads resolve references transparently.
package audittrail
