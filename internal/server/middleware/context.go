package middleware

import (
	"context"

	"contaplus/backend/internal/security"
)

type contextKey struct{ name string }

var (
	identityKey  = contextKey{"identity"}
	clientIPKey  = contextKey{"client_ip"}
	userAgentKey = contextKey{"user_agent"}
)

// WithIdentity returns a context carrying the verified token identity.
// Handlers read it back via GetIdentity.
func WithIdentity(ctx context.Context, id *security.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the verified identity from context and true if set; otherwise nil, false.
func GetIdentity(ctx context.Context) (*security.Identity, bool) {
	v, ok := ctx.Value(identityKey).(*security.Identity)
	return v, ok
}

// WithClientInfo returns a context with the request's client IP and user agent set.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, ip)
	ctx = context.WithValue(ctx, userAgentKey, userAgent)
	return ctx
}

// GetClientIP returns the client IP from context, or "" if not set.
func GetClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// GetUserAgent returns the request's User-Agent from context, or "" if not set.
func GetUserAgent(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey).(string)
	return v
}
