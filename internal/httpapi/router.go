package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal/obs"
	"github.com/campverse/authcore/middleware"
)

// AdminRole guards the admin routes.
const AdminRole = "admin"

type Options struct {
	Engine   *authcore.Engine
	Resolver *device.Resolver
	Cookie   CookieConfig
	Logger   *zap.Logger

	// PasswordLogin registers POST /auth/login.
	PasswordLogin bool
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
	// HTTPMetrics records per-route request counts and latency.
	HTTPMetrics *obs.HTTPMetrics
	// Ping checks the durable store for /healthz.
	Ping func(ctx context.Context) error
}

type api struct {
	engine   *authcore.Engine
	resolver *device.Resolver
	cookie   CookieConfig
	log      *zap.Logger
	ping     func(ctx context.Context) error
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = device.NewResolver(device.NewHeaderLocator(), 0, log)
	}
	a := &api{
		engine:   opts.Engine,
		resolver: resolver,
		cookie:   opts.Cookie.withDefaults(),
		log:      log.With(zap.String("component", "httpapi")),
		ping:     opts.Ping,
	}

	auth := middleware.Require(opts.Engine)
	admin := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole(AdminRole)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", a.refresh)
	mux.Handle("POST /auth/logout", auth(http.HandlerFunc(a.logout)))
	mux.Handle("GET /auth/sessions", auth(http.HandlerFunc(a.listSessions)))
	mux.Handle("DELETE /auth/sessions/{id}", auth(http.HandlerFunc(a.revokeSession)))
	mux.Handle("DELETE /auth/sessions", auth(http.HandlerFunc(a.revokeAll)))
	mux.Handle("GET /auth/login-history", auth(http.HandlerFunc(a.loginHistory)))
	mux.Handle("GET /auth/security-check", auth(http.HandlerFunc(a.securityCheck)))
	mux.Handle("GET /auth/login-stats", auth(http.HandlerFunc(a.loginStats)))
	mux.Handle("DELETE /admin/sessions/{id}", admin(a.adminRevoke))
	if opts.PasswordLogin {
		mux.HandleFunc("POST /auth/login", a.login)
	}
	mux.HandleFunc("GET /healthz", a.healthz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return obs.Middleware(log, opts.HTTPMetrics)(mux)
}

func badRequest(w http.ResponseWriter, msg string) {
	middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorBody{Error: "bad_request", Message: msg})
}

// identity is only called behind Require.
func identity(r *http.Request) *authcore.Identity {
	id, _ := authcore.IdentityFromContext(r.Context())
	return id
}
