package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent maps a raw User-Agent header to device class, client and platform.
func ParseUserAgent(raw string) (deviceClass, client, platform string) {
	if strings.TrimSpace(raw) == "" {
		return unknownDevice, unknownClient, unknownPlatform
	}

	ua := useragent.New(raw)

	client = unknownClient
	if name, version := ua.Browser(); name != "" {
		client = name
		if major, _, _ := strings.Cut(version, "."); major != "" {
			client += " " + major
		}
	}

	os := ua.OSInfo()
	platform = unknownPlatform
	if os.Name != "" {
		platform = os.Name
		if os.Version != "" {
			platform += " " + os.Version
		}
	}

	lower := strings.ToLower(raw)
	osName := strings.ToLower(os.Name)
	switch {
	case ua.Bot():
		deviceClass = "Bot"
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		deviceClass = "Tablet"
	case ua.Mobile():
		deviceClass = "Mobile"
	case strings.Contains(osName, "android"):
		deviceClass = "Android Device"
	case strings.Contains(osName, "ios") || strings.Contains(lower, "iphone"):
		deviceClass = "iPhone/iPad"
	case strings.Contains(osName, "mac"):
		deviceClass = "Mac"
	case strings.Contains(osName, "windows"):
		deviceClass = "Windows PC"
	case strings.Contains(osName, "linux"):
		deviceClass = "Linux PC"
	default:
		deviceClass = "Desktop"
	}
	return deviceClass, client, platform
}
