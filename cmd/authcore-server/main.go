package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/campverse/authcore/internal/config"
	"github.com/campverse/authcore/internal/obs"
)

func main() {
	configPath := flag.String("config", os.Getenv("AUTHCORE_CONFIG"), "path to the YAML config file (optional)")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := obs.NewLogger(cfg.LoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting authcore-server", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb, err := initRedis(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	sink, closeSink := initAudit(cfg, logger)
	defer closeSink()

	engine, err := buildEngine(cfg, logger, db, rdb, sink)
	if err != nil {
		logger.Fatal("build engine", zap.Error(err))
	}
	defer engine.Close()

	metricsHandler, httpMetrics, closeMetrics, err := initMetrics(cfg, engine, logger)
	if err != nil {
		logger.Fatal("metrics init", zap.Error(err))
	}
	defer closeMetrics()

	sweepErrCh := make(chan error, 1)
	go func() { sweepErrCh <- runSweeper(rootCtx, cfg, logger, db, engine) }()

	httpSrv := buildHTTPServer(cfg, logger, db, engine, metricsHandler, httpMetrics)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	case err := <-sweepErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweeper stopped", zap.Error(err))
		}
	}
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}
