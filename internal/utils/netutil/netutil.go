package netutil

import (
	"net"
	"net/netip"
	"strings"
	"unicode/utf8"
)

// MaxUserAgentLength is the number of runes of a user agent kept as evidence.
const MaxUserAgentLength = 512

// NormalizeIP returns the canonical address from a bare IP or a host:port
// pair, with any IPv6 zone removed. ok is false when raw holds no IP.
func NormalizeIP(raw string) (ip string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if addr, err := netip.ParseAddr(strings.Trim(raw, "[]")); err == nil {
		return addr.WithZone("").Unmap().String(), true
	}
	host, _, err := net.SplitHostPort(raw)
	if err != nil {
		return "", false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "", false
	}
	return addr.WithZone("").Unmap().String(), true
}

// FirstForwardedIP returns the left-most parseable address of an
// X-Forwarded-For style header value.
func FirstForwardedIP(header string) (string, bool) {
	for _, part := range strings.Split(header, ",") {
		if ip, ok := NormalizeIP(part); ok {
			return ip, true
		}
	}
	return "", false
}

// TruncateUserAgent trims ua to MaxUserAgentLength runes without splitting
// a multi-byte character.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	count := 0
	for i := range ua {
		if count == MaxUserAgentLength {
			return ua[:i]
		}
		count++
	}
	return ua
}
