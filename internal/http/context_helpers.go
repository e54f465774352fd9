package httpx

import (
	"context"

	"github.com/vitrinnea/admin-console/internal/service"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

type requestIDKey struct{}

// SetSessionInContext returns a child context that carries the controller for
// the current console session. If svc is nil, the original ctx is returned
// unchanged.
func SetSessionInContext(ctx context.Context, svc *service.SessionService) context.Context {
	if svc == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, svc)
}

// GetSessionFromContext returns the session controller and a boolean
// indicating presence.
func GetSessionFromContext(ctx context.Context) (*service.SessionService, bool) {
	if svc, ok := ctx.Value(sessionKey{}).(*service.SessionService); ok && svc != nil {
		return svc, true
	}
	return nil, false
}

// SetRequestIDInContext returns a child context carrying the request ID.
func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestIDFromContext returns the request ID, or "" when absent.
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
