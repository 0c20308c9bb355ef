package audittrail

import "context"

type userKey struct{}

// WithUser returns a context carrying the acting user's identifier.
// Mutations issued with this context are attributed to that user.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext extracts the acting user's identifier, or empty when
// the mutation is unattributed (system jobs, migrations).
func UserFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userKey{}).(string); ok {
		return id
	}
	return ""
}
