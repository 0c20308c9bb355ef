// Package server holds the HTTP server configuration consumed by the
// start command.
package server
