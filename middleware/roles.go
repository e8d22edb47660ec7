package middleware

import (
	"net/http"

	"github.com/campverse/authcore"
)

// RequireRole answers 403 unless the identity holds at least one of roles.
// It must run behind Require.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := authcore.IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, authcore.ErrNoCredential)
				return
			}
			if !id.HasRole(roles...) {
				WriteError(w, authcore.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrRole lets the request through when the path value named param
// equals the caller's user id, or when the caller holds one of roles.
func RequireSelfOrRole(param string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := authcore.IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, authcore.ErrNoCredential)
				return
			}
			if target := r.PathValue(param); target != "" && target == id.UserID {
				next.ServeHTTP(w, r)
				return
			}
			if len(roles) > 0 && id.HasRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, authcore.ErrForbidden)
		})
	}
}
