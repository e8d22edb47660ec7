// Package device resolves request metadata (device class, client, platform,
// client IP and coarse location) attached to sessions and ledger entries.
//
// The values are descriptive only. Nothing in authcore makes an authorization
// decision from them.
package device

import "strings"

const (
	unknownDevice   = "Unknown Device"
	unknownClient   = "Unknown Browser"
	unknownPlatform = "Unknown OS"
	unknownLocation = "Unknown Location"
	localLocation   = "Local Network"
)

// Location is a coarse geolocation snapshot.
type Location struct {
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Formatted   string `json:"formatted"`
}

// Info is the normalized request fingerprint.
type Info struct {
	Device    string   `json:"device"`
	Client    string   `json:"browser"`
	Platform  string   `json:"os"`
	UserAgent string   `json:"userAgent,omitempty"`
	IP        string   `json:"ipAddress"`
	Location  Location `json:"location"`
}

// Signature identifies the device for the one-active-session rule.
func (i Info) Signature() string {
	return i.Device + "|" + i.Client + "|" + i.Platform
}

// Label renders "Chrome 120 on Windows 10" style text for session lists.
func (i Info) Label() string {
	parts := make([]string, 0, 2)
	if i.Client != "" && i.Client != unknownClient {
		parts = append(parts, i.Client)
	}
	if i.Platform != "" && i.Platform != unknownPlatform {
		parts = append(parts, "on "+i.Platform)
	}
	if len(parts) == 0 {
		return unknownDevice
	}
	return strings.Join(parts, " ")
}

// Normalize fills empty fields with their "Unknown" placeholders.
func (i Info) Normalize() Info {
	if i.Device == "" {
		i.Device = unknownDevice
	}
	if i.Client == "" {
		i.Client = unknownClient
	}
	if i.Platform == "" {
		i.Platform = unknownPlatform
	}
	if i.Location.Formatted == "" {
		i.Location.Formatted = formatLocation(i.Location)
	}
	return i
}

func formatLocation(l Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return unknownLocation
	}
	return strings.Join(parts, ", ")
}
