package netutil

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeUserAgent summarises a user agent as "<browser> <major> on <os>",
// with a "(mobile)" suffix for mobile clients and a "bot: " prefix for
// crawlers. It returns "" when nothing can be recognised.
func DescribeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()

	if ua.Bot() {
		if name == "" {
			name = "unknown"
		}
		return "bot: " + name
	}

	desc := name
	if major, _, _ := strings.Cut(version, "."); name != "" && major != "" {
		desc += " " + major
	}
	if os := ua.OS(); os != "" {
		if desc == "" {
			desc = os
		} else {
			desc += " on " + os
		}
	}
	if desc != "" && ua.Mobile() {
		desc += " (mobile)"
	}
	return desc
}
