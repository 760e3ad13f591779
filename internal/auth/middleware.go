package auth

import (
	"context"
	"net/http"

	"lunch-voting/internal/logger"
	"lunch-voting/internal/utils"
)

type Verifier interface {
	Verify(ctx context.Context, raw string) (Principal, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's Principal in the request context.
func Middleware(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			p, err := v.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", r.Method+" "+r.URL.Path+": "+err.Error())
				utils.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			utils.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !p.Admin {
			utils.WriteError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
