package device

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Resolver turns a request into Info.
type Resolver struct {
	locator Locator
	timeout time.Duration
	log     *zap.Logger
}

// NewResolver builds a Resolver. A nil locator yields "Unknown Location" for
// public addresses.
func NewResolver(locator Locator, timeout time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		locator: locator,
		timeout: timeout,
		log:     log.With(zap.String("component", "device.resolver")),
	}
}

// Resolve never fails; lookup errors degrade to placeholder values.
func (res *Resolver) Resolve(r *http.Request) Info {
	ua := r.Header.Get("User-Agent")
	deviceClass, client, platform := ParseUserAgent(ua)
	info := Info{
		Device:    deviceClass,
		Client:    client,
		Platform:  platform,
		UserAgent: ua,
		IP:        ClientIP(r),
	}
	info.Location = res.locate(r, info.IP)
	return info.Normalize()
}

func (res *Resolver) locate(r *http.Request, ip string) Location {
	if IsLocal(ip) {
		return Location{Formatted: localLocation}
	}
	if res.locator == nil {
		return Location{Formatted: unknownLocation}
	}

	ctx := r.Context()
	if res.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, res.timeout)
		defer cancel()
	}

	loc, err := res.locator.Locate(ctx, r, ip)
	if err != nil {
		res.log.Debug("geolocation lookup failed", zap.Error(err))
		return Location{Formatted: unknownLocation}
	}
	return loc
}
