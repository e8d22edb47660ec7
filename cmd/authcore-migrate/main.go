// Command authcore-migrate applies the embedded schema migrations.
//
//	authcore-migrate -config config/authcore.yaml up
//	AUTHCORE_DB_URL=postgres://... authcore-migrate status
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/campverse/authcore/internal/config"
	"github.com/campverse/authcore/internal/obs"
	pg "github.com/campverse/authcore/internal/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("AUTHCORE_CONFIG"), "path to the YAML config file (optional)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] up|down|status|reset\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := obs.NewLogger(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running migrations", zap.String("command", command))
	if err := pg.Migrate(ctx, cfg.DB.URL, command); err != nil {
		logger.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migrations done", zap.String("command", command))
}
