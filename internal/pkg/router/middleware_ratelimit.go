package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fursurecare/otpservice/internal/pkg/ratelimit"
)

func middlewareRateLimit(l *ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(r.RemoteAddr)
			if !ok {
				secs := int(wait.Seconds())
				if secs < 1 {
					secs = 1
				}
				slog.WarnContext(r.Context(), "rate limit exceeded", "ip", r.RemoteAddr, "path", matchedRoutePath(r))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeJSON(w, errorResponse{Message: "too many requests"}, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
