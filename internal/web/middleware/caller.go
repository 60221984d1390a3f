package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/opsdesk/internal/core"
	"github.com/JonMunkholm/opsdesk/internal/logging"
)

// CallerIdentity reads the authenticated user id that the auth proxy puts in
// header and stores it on the request context. Requests without a valid UUID
// are rejected before they reach a handler.
func CallerIdentity(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = "X-User-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				writeJSONError(w, http.StatusUnauthorized, "IMP006", core.ErrNoCaller.Error())
				return
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				logging.FromContext(r.Context()).Warn("caller: malformed user id",
					"header", header,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusUnauthorized, "IMP006", "malformed caller identity")
				return
			}

			ctx := core.ContextWithCaller(r.Context(), id.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeJSONError writes the same error shape as the handlers for failures
// raised before a handler runs.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"message": message,
		"code":    code,
	})
}
