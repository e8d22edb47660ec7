// Package config loads the authcore-server configuration with viper.
package config

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/internal/obs"
	pg "github.com/campverse/authcore/internal/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type Kafka struct {
	// Brokers is a comma-separated list; empty disables the Kafka audit sink.
	Brokers      string        `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Auth struct {
	SigningMethod string `mapstructure:"signing_method"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	// Ed25519 keys, base64 standard encoding.
	PrivateKey string `mapstructure:"private_key"`
	PublicKey  string `mapstructure:"public_key"`
	KeyID      string `mapstructure:"key_id"`

	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
	ClockSkew time.Duration `mapstructure:"clock_skew"`

	RefreshTTL       time.Duration `mapstructure:"refresh_ttl"`
	RevokedRetention time.Duration `mapstructure:"revoked_retention"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	LedgerRetention  time.Duration `mapstructure:"ledger_retention"`

	FailClosed     bool `mapstructure:"fail_closed"`
	ProductionMode bool `mapstructure:"production_mode"`

	RefreshThrottle       bool          `mapstructure:"refresh_throttle"`
	MaxRefreshAttempts    int           `mapstructure:"max_refresh_attempts"`
	RefreshThrottleWindow time.Duration `mapstructure:"refresh_throttle_window"`
	MaxLoginFailures      int           `mapstructure:"max_login_failures"`
	LoginFailureWindow    time.Duration `mapstructure:"login_failure_window"`

	PasswordLogin bool `mapstructure:"password_login"`
	AuditEnabled  bool `mapstructure:"audit_enabled"`
}

type Cookie struct {
	Name     string `mapstructure:"name"`
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

// SameSiteMode maps "strict", "none" and anything else (lax) to http.SameSite.
func (c Cookie) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type Metrics struct {
	Enabled           bool `mapstructure:"enabled"`
	LatencyHistograms bool `mapstructure:"latency_histograms"`
	OTel              bool `mapstructure:"otel"`
}

type Config struct {
	App     App       `mapstructure:"app"`
	Server  Server    `mapstructure:"server"`
	DB      pg.Config `mapstructure:"db"`
	Redis   Redis     `mapstructure:"redis"`
	Kafka   Kafka     `mapstructure:"kafka"`
	Log     Log       `mapstructure:"log"`
	Auth    Auth      `mapstructure:"auth"`
	Cookie  Cookie    `mapstructure:"cookie"`
	Metrics Metrics   `mapstructure:"metrics"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

// EngineConfig overlays the service settings on authcore.DefaultConfig and
// validates the result.
func (c *Config) EngineConfig() (authcore.Config, error) {
	out := authcore.DefaultConfig()
	a := c.Auth

	out.JWT.SigningMethod = strings.ToLower(a.SigningMethod)
	out.JWT.Secret = []byte(a.JWTSecret)
	if a.PrivateKey != "" {
		key, err := base64.StdEncoding.DecodeString(a.PrivateKey)
		if err != nil {
			return authcore.Config{}, fmt.Errorf("auth.private_key: %w", err)
		}
		out.JWT.PrivateKey = key
	}
	if a.PublicKey != "" {
		key, err := base64.StdEncoding.DecodeString(a.PublicKey)
		if err != nil {
			return authcore.Config{}, fmt.Errorf("auth.public_key: %w", err)
		}
		out.JWT.PublicKey = key
	}
	out.JWT.KeyID = a.KeyID
	out.JWT.Issuer = a.Issuer
	out.JWT.Audience = a.Audience
	out.JWT.AccessTTL = a.AccessTTL
	out.JWT.ClockSkew = a.ClockSkew

	out.Session.RefreshTTL = a.RefreshTTL
	out.Session.RevokedRetention = a.RevokedRetention
	out.Session.SweepInterval = a.SweepInterval
	out.Ledger.Retention = a.LedgerRetention

	out.Revocation.FailClosed = a.FailClosed
	out.Security.ProductionMode = a.ProductionMode
	out.Security.EnableRefreshThrottle = a.RefreshThrottle
	out.Security.MaxRefreshAttempts = a.MaxRefreshAttempts
	out.Security.RefreshThrottleWindow = a.RefreshThrottleWindow
	out.Security.MaxLoginFailures = a.MaxLoginFailures
	out.Security.LoginFailureWindow = a.LoginFailureWindow

	out.Audit.Enabled = a.AuditEnabled
	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.LatencyHistograms

	if err := out.Validate(); err != nil {
		return authcore.Config{}, err
	}
	return out, nil
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
