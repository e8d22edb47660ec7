package loginhistory

import (
	"context"
	"time"
)

// Report is advisory; nothing locks an account based on it.
type Report struct {
	Suspicious      bool     `json:"suspicious"`
	UniqueCountries []string `json:"uniqueCountries"`
	UniqueIPs       int      `json:"uniqueIPs"`
	RecentLogins    int      `json:"recentLogins"`
}

type DetectorConfig struct {
	Window           time.Duration
	CountryThreshold int
	IPThreshold      int
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Window:           24 * time.Hour,
		CountryThreshold: 2,
		IPThreshold:      5,
	}
}

// Detector derives security signals from a Ledger.
type Detector struct {
	ledger Ledger
	cfg    DetectorConfig
	now    func() time.Time
}

func NewDetector(ledger Ledger, cfg DetectorConfig) *Detector {
	def := DefaultDetectorConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.CountryThreshold <= 0 {
		cfg.CountryThreshold = def.CountryThreshold
	}
	if cfg.IPThreshold <= 0 {
		cfg.IPThreshold = def.IPThreshold
	}
	return &Detector{ledger: ledger, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	if now != nil {
		d.now = now
	}
	return d
}

// SuspiciousActivity flags a user whose successful logins inside the window
// span more distinct countries or IPs than the thresholds allow.
func (d *Detector) SuspiciousActivity(ctx context.Context, userID string) (Report, error) {
	entries, err := d.ledger.SuccessfulSince(ctx, userID, d.now().Add(-d.cfg.Window))
	if err != nil {
		return Report{}, err
	}
	return d.evaluate(entries), nil
}

func (d *Detector) evaluate(entries []Entry) Report {
	countries := make([]string, 0)
	seenCountry := make(map[string]struct{})
	seenIP := make(map[string]struct{})
	for _, e := range entries {
		if c := e.Device.Location.Country; c != "" {
			if _, ok := seenCountry[c]; !ok {
				seenCountry[c] = struct{}{}
				countries = append(countries, c)
			}
		}
		if ip := e.Device.IP; ip != "" {
			seenIP[ip] = struct{}{}
		}
	}
	return Report{
		Suspicious:      len(countries) > d.cfg.CountryThreshold || len(seenIP) > d.cfg.IPThreshold,
		UniqueCountries: countries,
		UniqueIPs:       len(seenIP),
		RecentLogins:    len(entries),
	}
}

// RecentFailureCount counts failures for a user or address within window.
func (d *Detector) RecentFailureCount(ctx context.Context, key FailureKey, window time.Duration) (int, error) {
	return d.ledger.CountFailures(ctx, key, d.now().Add(-window))
}

// Stats summarizes attempts over the last days.
func (d *Detector) Stats(ctx context.Context, userID string, days int) (Stats, error) {
	if days <= 0 {
		days = 30
	}
	return d.ledger.Stats(ctx, userID, d.now().Add(-time.Duration(days)*24*time.Hour))
}
