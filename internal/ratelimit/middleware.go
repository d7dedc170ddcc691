package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the caller identifier a request is limited by.
type KeyFunc func(r *http.Request) string

// Middleware rejects callers over their limit with 429. When the limiter
// itself fails the request is let through and onError is told about it.
func Middleware(l Limiter, key KeyFunc, onError func(r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), key(r))
			if err != nil {
				if onError != nil {
					onError(r, err)
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfterSeconds(res)), 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(res Result) int {
	secs := int(time.Until(res.ResetAt).Seconds()) + 1
	if secs < 1 {
		return 1
	}
	return secs
}
