package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/internal/audit"
	"github.com/campverse/authcore/internal/config"
	pg "github.com/campverse/authcore/internal/postgres"
	"github.com/campverse/authcore/internal/subjects"
	"github.com/campverse/authcore/internal/sweeper"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/session"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	if cfg.DB.MigrateOnStart {
		logger.Info("applying migrations")
		if err := pg.Migrate(ctx, cfg.DB.URL, "up"); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return pg.New(ctx, cfg.DB)
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		if !cfg.Auth.FailClosed {
			// Revocation fails open; start degraded rather than not at all.
			logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			return rdb, nil
		}
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// initAudit fans events out to the log and, when brokers are configured, to
// Kafka.
func initAudit(cfg *config.Config, logger *zap.Logger) (authcore.AuditSink, func()) {
	sinks := audit.MultiSink{audit.NewZapSink(logger)}
	closeFn := func() {}

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		w := audit.NewKafkaWriter(brokers, cfg.Kafka.AuditTopic)
		ks := audit.NewKafkaSink(w, cfg.Kafka.AuditTopic, cfg.Kafka.WriteTimeout, logger)
		sinks = append(sinks, ks)
		closeFn = func() {
			if err := ks.Close(); err != nil {
				logger.Warn("kafka writer close", zap.Error(err))
			}
		}
		logger.Info("kafka audit sink enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.AuditTopic))
	}
	return sinks, closeFn
}

func buildEngine(cfg *config.Config, logger *zap.Logger, db *pg.DB, rdb redis.UniversalClient, sink authcore.AuditSink) (*authcore.Engine, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	users := subjects.NewStore(db)
	b := authcore.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithSessionStore(session.NewPostgresStore(db)).
		WithLedger(loginhistory.NewPostgresLedger(db)).
		WithSubjectProvider(users).
		WithAuditSink(sink).
		WithLogger(logger).
		WithMetricsEnabled(cfg.Metrics.Enabled).
		WithLatencyHistograms(cfg.Metrics.LatencyHistograms)
	if cfg.Auth.PasswordLogin {
		b.WithCredentialProvider(users)
	}
	return b.Build()
}

func runSweeper(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *pg.DB, engine *authcore.Engine) error {
	engineCfg := engine.Config()
	sw := sweeper.New(logger,
		session.NewPostgresStore(db),
		loginhistory.NewPostgresLedger(db),
		engine.Metrics(),
		sweeper.Config{
			Interval:         engineCfg.Session.SweepInterval,
			RevokedRetention: engineCfg.Session.RevokedRetention,
			LedgerRetention:  engineCfg.Ledger.Retention,
		},
	)
	return sw.Run(ctx)
}
