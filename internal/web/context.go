package web

import (
	"net/http"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

// callerID returns the user id placed on the request by CallerIdentity.
func callerID(r *http.Request) string {
	return core.CallerFromContext(r.Context())
}

// clientIP returns the address recorded by TrustedRealIP, falling back to
// the raw RemoteAddr when that middleware did not run.
func clientIP(r *http.Request) string {
	if ip := core.GetIPAddressFromContext(r.Context()); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
