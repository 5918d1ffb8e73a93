package shared

import "context"

type webSessionContextKey struct{}

// ContextWithWebSession stores the web session in context.
func ContextWithWebSession(ctx context.Context, sess *WebSession) context.Context {
	return context.WithValue(ctx, webSessionContextKey{}, sess)
}

// WebSessionFromContext extracts the web session from context.
func WebSessionFromContext(ctx context.Context) *WebSession {
	sess, _ := ctx.Value(webSessionContextKey{}).(*WebSession)
	return sess
}
