package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fursurecare/otpservice/internal/pkg/jwt"
)

// middlewareAuthentication puts verified claims on the context. Routes listed
// in public as "METHOD /path" pass through without a token.
func middlewareAuthentication(verifier jwt.JWT, public map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.Method+" "+matchedRoutePath(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			token = strings.TrimSpace(token)
			if !found || token == "" || !strings.EqualFold(scheme, "Bearer") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="otpservice"`)
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			var (
				claims jwt.Claims
				err    = jwt.ErrInvalidToken
			)
			if verifier != nil {
				claims, err = verifier.Verify(token)
			}
			if err != nil {
				recordError(w, err)
				msg := "Invalid or expired token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Token has expired"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="otpservice", error="invalid_token"`)
				writeJSON(w, errorResponse{Message: msg}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
