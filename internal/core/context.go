package core

import (
	"context"

	"github.com/JonMunkholm/opsdesk/internal/logging"
)

type contextKey string

const (
	ctxKeyCallerID  contextKey = "caller_id"
	ctxKeyIPAddress contextKey = "caller_ip"
)

// ContextWithCaller records the importing caller. Loggers built from the
// returned context carry the caller id.
func ContextWithCaller(ctx context.Context, callerID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyCallerID, callerID)
	return logging.WithCaller(ctx, callerID)
}

// CallerFromContext extracts the caller id, or "" if none was set.
func CallerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyCallerID).(string); ok {
		return v
	}
	return ""
}

// ContextWithIPAddress adds the client IP to context for logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// GetIPAddressFromContext extracts the client IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
