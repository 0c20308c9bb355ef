// Package utils contains small conversion helpers shared by the audit
// codec consumers and HTTP handlers.
package utils
