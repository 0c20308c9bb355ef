// Package database manages the GORM database connection and schema
// inspection helpers.
//
// The connection is optional: features degrade gracefully when no
// database is reachable, so Connect errors are warnings, not fatal.
package database
