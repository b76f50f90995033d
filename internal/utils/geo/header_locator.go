// Package geo resolves an approximate signer location from headers set by
// the edge proxy in front of the service.
package geo

import (
	"context"
	"net/http"
	"strings"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// Header names populated by Cloudflare-style CDNs.
const (
	HeaderCity     = "CF-IPCity"
	HeaderCountry  = "CF-IPCountry"
	HeaderTimezone = "CF-Timezone"
)

// Headers lists every header the locator reads, for evidence extraction.
var Headers = []string{HeaderCity, HeaderCountry, HeaderTimezone}

// HeaderLocator reads geolocation from trusted proxy headers. It never
// contacts an external service.
type HeaderLocator struct{}

// NewHeaderLocator returns the default locator.
func NewHeaderLocator() *HeaderLocator {
	return &HeaderLocator{}
}

// Locate returns nil when none of the headers carry a usable value.
// "XX" and "T1" are the CDN placeholders for unknown and Tor exits.
func (l *HeaderLocator) Locate(_ context.Context, _ string, headers map[string]string) (*domain.GeoLocation, error) {
	loc := domain.GeoLocation{
		City:     lookup(headers, HeaderCity),
		Country:  strings.ToUpper(lookup(headers, HeaderCountry)),
		Timezone: lookup(headers, HeaderTimezone),
	}
	if loc.Country == "XX" || loc.Country == "T1" {
		loc.Country = ""
	}
	if loc.IsZero() {
		return nil, nil
	}
	return &loc, nil
}

func lookup(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	canonical := http.CanonicalHeaderKey(name)
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
