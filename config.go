package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the library configuration. Build it from DefaultConfig and
// override fields; Validate runs during Build.
type Config struct {
	JWT        JWTConfig
	Session    SessionConfig
	Revocation RevocationConfig
	Ledger     LedgerConfig
	Security   SecurityConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	// Secret is the HMAC key for hs256.
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
	KeyID      string
}

/*
====================================
SESSION CONFIG
====================================
*/

type SessionConfig struct {
	RefreshTTL       time.Duration
	RevokedRetention time.Duration
	SweepInterval    time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

type RevocationConfig struct {
	// FailClosed rejects requests when the cache cannot be consulted.
	FailClosed bool
	OpTimeout  time.Duration
	KeyPrefix  string
}

/*
====================================
LEDGER CONFIG
====================================
*/

type LedgerConfig struct {
	Retention                  time.Duration
	QueueSize                  int
	WriteTimeout               time.Duration
	SuspiciousWindow           time.Duration
	SuspiciousCountryThreshold int
	SuspiciousIPThreshold      int
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	ProductionMode        bool
	EnableRefreshThrottle bool
	MaxRefreshAttempts    int
	RefreshThrottleWindow time.Duration
	MaxLoginFailures      int
	LoginFailureWindow    time.Duration
}

type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const maxClockSkew = 2 * time.Minute

// DefaultConfig returns development defaults. JWT.Secret must still be set.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authcore",
			Audience:      "authcore-clients",
			ClockSkew:     30 * time.Second,
		},
		Session: SessionConfig{
			RefreshTTL:       30 * 24 * time.Hour,
			RevokedRetention: 30 * 24 * time.Hour,
			SweepInterval:    time.Hour,
		},
		Revocation: RevocationConfig{
			FailClosed: false,
			OpTimeout:  250 * time.Millisecond,
			KeyPrefix:  "rv",
		},
		Ledger: LedgerConfig{
			Retention:                  90 * 24 * time.Hour,
			QueueSize:                  1024,
			WriteTimeout:               2 * time.Second,
			SuspiciousWindow:           24 * time.Hour,
			SuspiciousCountryThreshold: 2,
			SuspiciousIPThreshold:      5,
		},
		Security: SecurityConfig{
			EnableRefreshThrottle: true,
			MaxRefreshAttempts:    30,
			RefreshThrottleWindow: time.Minute,
			MaxLoginFailures:      5,
			LoginFailureWindow:    15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func invalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

// Validate checks hard constraints. Soft concerns are reported by Lint.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return invalidConfig("JWT AccessTTL must be > 0")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.Secret) < 32 {
			return invalidConfig("hs256 requires a Secret of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
			return invalidConfig("ed25519 requires PrivateKey and PublicKey")
		}
	default:
		return invalidConfig("unsupported JWT signing method")
	}
	if strings.TrimSpace(c.JWT.Issuer) == "" || strings.TrimSpace(c.JWT.Audience) == "" {
		return invalidConfig("JWT Issuer and Audience are required")
	}
	if c.JWT.ClockSkew < 0 || c.JWT.ClockSkew > maxClockSkew {
		return invalidConfig("JWT ClockSkew must be between 0 and 2m")
	}

	// Session
	if c.Session.RefreshTTL <= c.JWT.AccessTTL {
		return invalidConfig("Session RefreshTTL must exceed JWT AccessTTL")
	}
	if c.Session.RevokedRetention < 0 {
		return invalidConfig("Session RevokedRetention must be >= 0")
	}
	if c.Session.SweepInterval < 0 {
		return invalidConfig("Session SweepInterval must be >= 0")
	}

	// Revocation
	if c.Revocation.OpTimeout <= 0 {
		return invalidConfig("Revocation OpTimeout must be > 0")
	}

	// Ledger
	if c.Ledger.QueueSize <= 0 {
		return invalidConfig("Ledger QueueSize must be > 0")
	}
	if c.Ledger.Retention <= 0 {
		return invalidConfig("Ledger Retention must be > 0")
	}
	if c.Ledger.SuspiciousCountryThreshold <= 0 || c.Ledger.SuspiciousIPThreshold <= 0 {
		return invalidConfig("Ledger suspicious thresholds must be > 0")
	}

	// Security
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 || c.Security.RefreshThrottleWindow <= 0 {
			return invalidConfig("refresh throttle requires MaxRefreshAttempts and RefreshThrottleWindow > 0")
		}
	}
	if c.Security.MaxLoginFailures < 0 || c.Security.LoginFailureWindow < 0 {
		return invalidConfig("login failure limits must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return invalidConfig("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 || c.Password.Parallelism < 1 {
		return invalidConfig("Password Time and Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 || c.Password.KeyLength < 16 {
		return invalidConfig("Password SaltLength and KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalidConfig("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintResult []LintWarning

func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// AsError returns the warnings at or above min joined into one error.
func (r LintResult) AsError(min LintSeverity) error {
	var errs []error
	for _, w := range r {
		if w.Severity >= min {
			errs = append(errs, fmt.Errorf("%s: %s", w.Code, w.Message))
		}
	}
	return errors.Join(errs...)
}

// Lint reports configurations that are valid but risky.
func (c *Config) Lint() LintResult {
	var out LintResult
	add := func(code string, sev LintSeverity, msg string) {
		out = append(out, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Security.ProductionMode && !c.Revocation.FailClosed {
		add("revocation_fail_open", LintWarn, "revocation cache errors are ignored; revoked tokens stay usable during a cache outage")
	}
	if c.JWT.ClockSkew > time.Minute {
		add("clock_skew_large", LintWarn, "clock skew above 1m extends token lifetime")
	}
	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, "access tokens live longer than 1h")
	}
	if c.Session.RefreshTTL > 90*24*time.Hour {
		add("refresh_ttl_long", LintInfo, "refresh credentials live longer than 90 days")
	}
	if !c.Security.EnableRefreshThrottle {
		add("refresh_throttle_disabled", LintWarn, "refresh endpoint is not throttled")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not emitted")
	}
	if c.Security.ProductionMode && c.JWT.SigningMethod == "hs256" {
		add("hs256_shared_secret", LintInfo, "hs256 requires every verifier to hold the signing secret")
	}
	if c.Password.Memory < 32*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory below 32 MiB")
	}
	return out
}
