// Package contexthelpers stores request-scoped values set by the web middleware.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const (
	authenticatedUserKey = contextKey("authenticatedUser")
	currentPathKey       = contextKey("currentPath")
	cspNonceKey          = contextKey("cspNonce")
	traceIDKey           = contextKey("traceID")
)

func AuthenticateContext(r *http.Request, username string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authenticatedUserKey, username))
}

// AuthenticatedUser returns the basic auth user name or "" for anonymous requests.
func AuthenticatedUser(ctx context.Context) string {
	v, _ := ctx.Value(authenticatedUserKey).(string)
	return v
}

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentPathKey, currentPath))
}

func CurrentPath(ctx context.Context) string {
	v, _ := ctx.Value(currentPathKey).(string)
	return v
}

func SetCSPNonce(r *http.Request, nonce string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cspNonceKey, nonce))
}

func CSPNonce(ctx context.Context) string {
	v, _ := ctx.Value(cspNonceKey).(string)
	return v
}

func SetTraceID(r *http.Request, traceID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), traceIDKey, traceID))
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}
