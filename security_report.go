package authcore

import "time"

// SecurityReport summarizes the effective security posture for operators.
type SecurityReport struct {
	ProductionMode        bool                 `json:"productionMode"`
	SigningAlgorithm      string               `json:"signingAlgorithm"`
	AccessTTL             time.Duration        `json:"accessTTL"`
	RefreshTTL            time.Duration        `json:"refreshTTL"`
	ClockSkew             time.Duration        `json:"clockSkew"`
	RevocationFailClosed  bool                 `json:"revocationFailClosed"`
	RefreshThrottleActive bool                 `json:"refreshThrottleActive"`
	LoginLimitActive      bool                 `json:"loginLimitActive"`
	PasswordLoginEnabled  bool                 `json:"passwordLoginEnabled"`
	AuditEnabled          bool                 `json:"auditEnabled"`
	Argon2                PasswordConfigReport `json:"argon2"`
	LintCodes             []string             `json:"lintCodes"`
}

type PasswordConfigReport struct {
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	SaltLength  uint32 `json:"saltLength"`
	KeyLength   uint32 `json:"keyLength"`
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config

	return SecurityReport{
		ProductionMode:        cfg.Security.ProductionMode,
		SigningAlgorithm:      cfg.JWT.SigningMethod,
		AccessTTL:             cfg.JWT.AccessTTL,
		RefreshTTL:            cfg.Session.RefreshTTL,
		ClockSkew:             cfg.JWT.ClockSkew,
		RevocationFailClosed:  cfg.Revocation.FailClosed,
		RefreshThrottleActive: cfg.Security.EnableRefreshThrottle && e.limiter != nil,
		LoginLimitActive:      cfg.Security.MaxLoginFailures > 0 && e.limiter != nil,
		PasswordLoginEnabled:  e.credentials != nil,
		AuditEnabled:          cfg.Audit.Enabled,
		Argon2: PasswordConfigReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		LintCodes: cfg.Lint().Codes(),
	}
}
