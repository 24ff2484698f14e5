package middleware

import (
	"context"
	"net/http"

	"github.com/gatherhall/server/internal/api/apierror"
	"github.com/gatherhall/server/internal/auth"
)

const claimsKey contextKey = "auth_claims"

// RequireAuth validates the bearer token and stores the session claims in the
// request context. Requests without a valid token get 401 and never reach the
// wrapped handler.
func RequireAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				apierror.Unauthorized(w, r, "authentication required", err)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				apierror.Unauthorized(w, r, "invalid or expired token", err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a handler on the session role. It must run inside
// RequireAuth. Admins pass every role check.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apierror.Unauthorized(w, r, "authentication required", nil)
				return
			}
			if !auth.HasRole(claims.Role, role, auth.RoleAdmin) {
				apierror.Forbidden(w, r, "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the session claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
