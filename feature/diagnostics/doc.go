// Package diagnostics exposes the equality and identity cache counters
// over HTTP, plus the explicit clear operation used for memory
// reclamation in long-running processes.
package diagnostics
