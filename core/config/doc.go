// Package config aggregates the application configuration from
// environment variables and an optional .env file.
//
// Defaults come from struct tags; every key is overridable via
// environment variables using underscore-separated nesting
// (e.g. CACHES_TYPE_RESOLUTION_CAPACITY -> caches.type_resolution_capacity).
package config
