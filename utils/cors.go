package utils

import (
	"net/netip"
	"net/url"
	"strings"
)

// IsAllowedOrigin reports whether an Origin header value should be trusted.
// The dashboard is meant to live on a LAN: localhost, private and link-local
// IPs, .local mDNS names, and single-label hostnames pass. Public internet
// origins are blocked.
func IsAllowedOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Hostname()

	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return true
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}
	// Single-label hostnames are LAN names.
	return !strings.Contains(host, ".")
}
