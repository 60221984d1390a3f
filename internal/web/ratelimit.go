package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/JonMunkholm/opsdesk/internal/logging"
)

// rateLimit returns middleware allowing perMinute requests per client IP.
// Buckets are namespaced by scope so the general and import limits sharing
// one store do not count against each other.
func rateLimit(store limiter.Store, scope string, perMinute int) func(http.Handler) http.Handler {
	if store == nil {
		store = memory.NewStore()
	}
	instance := limiter.New(store, limiter.Rate{
		Period: time.Minute,
		Limit:  int64(perMinute),
	})

	mw := mhttp.NewMiddleware(instance,
		mhttp.WithKeyGetter(func(r *http.Request) string {
			return scope + ":" + clientIP(r)
		}),
		mhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				"scope", scope,
				"ip", clientIP(r),
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", strconv.Itoa(60))
			writeError(w, http.StatusTooManyRequests, "RATE001", "rate limit exceeded")
		}),
		mhttp.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logging.FromContext(r.Context()).Error("rate limiter store failed", "scope", scope, "error", err)
			writeError(w, http.StatusInternalServerError, "ERR000", "rate limiter unavailable")
		}),
	)
	return mw.Handler
}
