package device

import (
	"context"
	"net/http"
	"strings"
)

// Locator resolves a coarse location for a client address.
type Locator interface {
	Locate(ctx context.Context, r *http.Request, ip string) (Location, error)
}

// HeaderLocator reads geolocation headers injected by a CDN or edge proxy.
type HeaderLocator struct {
	CountryHeader     string
	CountryCodeHeader string
	RegionHeader      string
	CityHeader        string
}

// NewHeaderLocator returns a HeaderLocator for Cloudflare-style headers.
func NewHeaderLocator() HeaderLocator {
	return HeaderLocator{
		CountryHeader:     "X-Geo-Country",
		CountryCodeHeader: "CF-IPCountry",
		RegionHeader:      "X-Geo-Region",
		CityHeader:        "X-Geo-City",
	}
}

func (h HeaderLocator) Locate(_ context.Context, r *http.Request, ip string) (Location, error) {
	if IsLocal(ip) {
		return Location{Formatted: localLocation}, nil
	}
	if r == nil {
		return Location{Formatted: unknownLocation}, nil
	}
	loc := Location{
		City:        header(r, h.CityHeader),
		Region:      header(r, h.RegionHeader),
		Country:     header(r, h.CountryHeader),
		CountryCode: strings.ToUpper(header(r, h.CountryCodeHeader)),
	}
	// "XX" and "T1" are Cloudflare's unknown and Tor markers.
	if loc.CountryCode == "XX" || loc.CountryCode == "T1" {
		loc.CountryCode = ""
	}
	if loc.Country == "" {
		loc.Country = loc.CountryCode
	}
	loc.Formatted = formatLocation(loc)
	return loc, nil
}

func header(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(r.Header.Get(name))
}
