package router

import (
	"net/http"
	"strconv"

	"github.com/samber/lo"

	"github.com/fursurecare/otpservice/internal/pkg/config"
)

// healthRoute stays up during maintenance so load balancers keep the pod.
const healthRoute = "GET /health"

// middlewareMaintenance answers 503 for routes in router.maintenance_routes.
// Items are "METHOD /path", "* /path" for any method, or "*" for every route.
// The list is read per request so a config reload applies immediately.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil {
				next.ServeHTTP(w, r)
				return
			}

			path := matchedRoutePath(r)
			route := r.Method + " " + path
			down := route != healthRoute && lo.SomeBy(cfg.GetArray("router.maintenance_routes"), func(item string) bool {
				return item == "*" || item == route || item == "* "+path
			})
			if !down {
				next.ServeHTTP(w, r)
				return
			}

			if secs := cfg.GetInt("router.maintenance_retry_seconds"); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
