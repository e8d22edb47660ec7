package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campverse/authcore/internal/audit"
	"github.com/campverse/authcore/internal/rate"
	"github.com/campverse/authcore/jwt"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/password"
	"github.com/campverse/authcore/revocation"
	"github.com/campverse/authcore/session"
)

// Builder collects the Engine's collaborators. A Builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessions    session.Store
	cache       revocation.Cache
	ledger      loginhistory.Ledger
	subjects    SubjectProvider
	credentials CredentialProvider
	auditSink   AuditSink
	log         *zap.Logger
	now         func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used for attempt counters and, unless
// WithRevocationCache is called, for the revocation cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessions = store
	return b
}

func (b *Builder) WithRevocationCache(cache revocation.Cache) *Builder {
	b.cache = cache
	return b
}

func (b *Builder) WithLedger(ledger loginhistory.Ledger) *Builder {
	b.ledger = ledger
	return b
}

func (b *Builder) WithSubjectProvider(p SubjectProvider) *Builder {
	b.subjects = p
	return b
}

// WithCredentialProvider enables Engine.Login.
func (b *Builder) WithCredentialProvider(p CredentialProvider) *Builder {
	b.credentials = p
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source for token issuance, verification and
// ledger timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.sessions == nil {
		return nil, errors.New("session store required")
	}
	if b.subjects == nil {
		return nil, errors.New("subject provider required")
	}
	if b.ledger == nil {
		return nil, errors.New("login history ledger required")
	}
	cache := b.cache
	if cache == nil {
		if b.redis == nil {
			return nil, errors.New("revocation cache or redis client required")
		}
		cache = revocation.NewRedisCache(b.redis, cfg.Revocation.KeyPrefix, cfg.Revocation.OpTimeout)
	}
	if cfg.Security.EnableRefreshThrottle && b.redis == nil {
		return nil, errors.New("refresh throttle requires redis client")
	}

	log := b.log
	if log == nil {
		log = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		sessions:    b.sessions,
		revocation:  cache,
		ledger:      b.ledger,
		subjects:    b.subjects,
		credentials: b.credentials,
		redis:       b.redis,
		log:         log.With(zap.String("component", "authcore")),
		now:         now,
	}

	if ws := cfg.Lint(); cfg.Security.ProductionMode {
		for _, w := range ws {
			if w.Severity >= LintWarn {
				engine.log.Warn("configuration lint", zap.String("code", w.Code), zap.String("detail", w.Message))
			}
		}
	}

	signingKey := cfg.JWT.PrivateKey
	if cfg.JWT.SigningMethod == "hs256" {
		signingKey = cfg.JWT.Secret
	}
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(signingKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.ClockSkew,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}
	engine.jwt = jm.WithClock(now)

	if b.redis != nil {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableRefreshThrottle: cfg.Security.EnableRefreshThrottle,
			MaxRefreshAttempts:    cfg.Security.MaxRefreshAttempts,
			RefreshWindow:         cfg.Security.RefreshThrottleWindow,
			MaxLoginFailures:      cfg.Security.MaxLoginFailures,
			LoginFailureWindow:    cfg.Security.LoginFailureWindow,
		})
	}

	if b.credentials != nil {
		h, err := password.NewHasher(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = h
	}

	engine.detector = loginhistory.NewDetector(b.ledger, loginhistory.DetectorConfig{
		Window:           cfg.Ledger.SuspiciousWindow,
		CountryThreshold: cfg.Ledger.SuspiciousCountryThreshold,
		IPThreshold:      cfg.Ledger.SuspiciousIPThreshold,
	}).WithClock(now)
	engine.recorder = loginhistory.NewRecorder(b.ledger, cfg.Ledger.QueueSize, cfg.Ledger.WriteTimeout, log)
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink, log)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
