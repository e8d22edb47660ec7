package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/device"
)

// Authenticator is the part of *authcore.Engine the guards need.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authcore.Identity, error)
}

// Require authenticates every request and answers 401/503 on failure.
func Require(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authcore.WithClientIP(r.Context(), device.ClientIP(r))

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, authcore.ErrNoCredential)
				return
			}

			id, err := a.Authenticate(ctx, token)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(authcore.WithIdentity(ctx, id)))
		})
	}
}

// Optional attaches an identity when the request carries a valid token and
// otherwise continues anonymously.
func Optional(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authcore.WithClientIP(r.Context(), device.ClientIP(r))

			if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
				if id, err := a.Authenticate(ctx, token); err == nil {
					ctx = authcore.WithIdentity(ctx, id)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
