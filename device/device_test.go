package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.109 Safari/537.36"

func TestParseUserAgentDesktopChrome(t *testing.T) {
	deviceClass, client, platform := ParseUserAgent(chromeWindows)
	assert.Equal(t, "Windows PC", deviceClass)
	assert.Equal(t, "Chrome 120", client)
	assert.Contains(t, platform, "Windows")
}

func TestParseUserAgentEmpty(t *testing.T) {
	deviceClass, client, platform := ParseUserAgent("")
	assert.Equal(t, unknownDevice, deviceClass)
	assert.Equal(t, unknownClient, client)
	assert.Equal(t, unknownPlatform, platform)
}

func TestClientIPHeaderOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ClientIP(r))

	r.Header.Set("CF-Connecting-IP", "203.0.113.3")
	assert.Equal(t, "203.0.113.3", ClientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.2")
	assert.Equal(t, "203.0.113.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	assert.Equal(t, "203.0.113.1", ClientIP(r))
}

func TestResolverLocalAddress(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:1234"
	r.Header.Set("User-Agent", chromeWindows)

	info := NewResolver(NewHeaderLocator(), 0, nil).Resolve(r)
	assert.Equal(t, "127.0.0.1", info.IP)
	assert.Equal(t, localLocation, info.Location.Formatted)
	assert.Equal(t, "Chrome 120", info.Client)
}

func TestHeaderLocatorReadsGeoHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("CF-IPCountry", "in")
	r.Header.Set("X-Geo-City", "Pune")
	r.Header.Set("X-Geo-Region", "Maharashtra")

	loc, err := NewHeaderLocator().Locate(r.Context(), r, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "IN", loc.CountryCode)
	assert.Equal(t, "IN", loc.Country)
	assert.Equal(t, "Pune, Maharashtra, IN", loc.Formatted)
}

func TestInfoSignatureAndLabel(t *testing.T) {
	info := Info{Device: "Mac", Client: "Safari 17", Platform: "Mac OS X 14"}
	assert.Equal(t, "Mac|Safari 17|Mac OS X 14", info.Signature())
	assert.Equal(t, "Safari 17 on Mac OS X 14", info.Label())
	assert.Equal(t, unknownDevice, Info{}.Label())
}
