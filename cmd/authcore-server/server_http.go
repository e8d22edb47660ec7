package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal/config"
	"github.com/campverse/authcore/internal/httpapi"
	"github.com/campverse/authcore/internal/obs"
	pg "github.com/campverse/authcore/internal/postgres"
	authprom "github.com/campverse/authcore/metrics/export/prometheus"
	authotel "github.com/campverse/authcore/metrics/export/otel"
)

const geoLookupTimeout = 200 * time.Millisecond

// initMetrics builds a private registry with runtime and HTTP metrics, plus
// the engine collector when metrics are enabled. With metrics.otel set the
// engine counters are also published through the global OTel meter provider.
func initMetrics(cfg *config.Config, engine *authcore.Engine, logger *zap.Logger) (http.Handler, *obs.HTTPMetrics, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := obs.NewHTTPMetrics(reg)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	if !cfg.Metrics.Enabled {
		return handler, httpMetrics, func() {}, nil
	}
	reg.MustRegister(authprom.NewCollector(engine))

	closeFn := func() {}
	if cfg.Metrics.OTel {
		exp, err := authotel.New(otel.Meter("github.com/campverse/authcore"), engine)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn = func() {
			if err := exp.Close(); err != nil {
				logger.Warn("otel exporter close", zap.Error(err))
			}
		}
	}
	return handler, httpMetrics, closeFn, nil
}

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, engine *authcore.Engine, metrics http.Handler, httpMetrics *obs.HTTPMetrics) *http.Server {
	handler := httpapi.NewRouter(httpapi.Options{
		Engine:   engine,
		Resolver: device.NewResolver(device.NewHeaderLocator(), geoLookupTimeout, logger),
		Cookie: httpapi.CookieConfig{
			Name:     cfg.Cookie.Name,
			Domain:   cfg.Cookie.Domain,
			Path:     cfg.Cookie.Path,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSiteMode(),
			MaxAge:   engine.RefreshTTL(),
		},
		Logger:        logger,
		PasswordLogin: cfg.Auth.PasswordLogin,
		Metrics:       metrics,
		HTTPMetrics:   httpMetrics,
		Ping:          db.Ping,
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
