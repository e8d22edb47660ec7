package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	errNoDatabase ErrConfig = "db.url is required"
	errNoRedis    ErrConfig = "redis.addr is required"
)

// Load reads an optional YAML file at path, then AUTHCORE_* environment
// variables (AUTHCORE_AUTH_JWT_SECRET overrides auth.jwt_secret).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetDefault("app.name", "authcore")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("db.url", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "10m")
	v.SetDefault("db.health_check_period", "30s")
	v.SetDefault("db.query_timeout", "2s")
	v.SetDefault("db.migrate_on_start", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.audit_topic", "authcore-audit")
	v.SetDefault("kafka.write_timeout", "2s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("auth.signing_method", "hs256")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.private_key", "")
	v.SetDefault("auth.public_key", "")
	v.SetDefault("auth.key_id", "")
	v.SetDefault("auth.issuer", "authcore")
	v.SetDefault("auth.audience", "authcore-clients")
	v.SetDefault("auth.access_ttl", "1h")
	v.SetDefault("auth.clock_skew", "30s")
	v.SetDefault("auth.refresh_ttl", "720h")
	v.SetDefault("auth.revoked_retention", "720h")
	v.SetDefault("auth.sweep_interval", "1h")
	v.SetDefault("auth.ledger_retention", "2160h")
	v.SetDefault("auth.fail_closed", false)
	v.SetDefault("auth.production_mode", false)
	v.SetDefault("auth.refresh_throttle", true)
	v.SetDefault("auth.max_refresh_attempts", 30)
	v.SetDefault("auth.refresh_throttle_window", "1m")
	v.SetDefault("auth.max_login_failures", 5)
	v.SetDefault("auth.login_failure_window", "15m")
	v.SetDefault("auth.password_login", false)
	v.SetDefault("auth.audit_enabled", true)

	v.SetDefault("cookie.name", "refresh_token")
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.path", "/auth")
	v.SetDefault("cookie.secure", false)
	v.SetDefault("cookie.same_site", "lax")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.latency_histograms", false)
	v.SetDefault("metrics.otel", false)

	v.SetEnvPrefix("AUTHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.URL == "" {
		return nil, errNoDatabase
	}
	if cfg.Redis.Addr == "" {
		return nil, errNoRedis
	}
	return &cfg, nil
}
