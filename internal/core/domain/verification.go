package domain

import "time"

// GeoLocation is a best-effort approximate location of the signer.
type GeoLocation struct {
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// IsZero reports whether no location field was resolved.
func (g GeoLocation) IsZero() bool {
	return g.City == "" && g.Country == "" && g.Timezone == ""
}

// VerificationContext is the request-time evidence attached to a signature
// and its audit entry. Absent fields are nil, never an error.
type VerificationContext struct {
	CapturedAt time.Time    `json:"capturedAt"`
	IPAddress  *string      `json:"ipAddress,omitempty"`
	Location   *GeoLocation `json:"location,omitempty"`
	UserAgent  string       `json:"userAgent,omitempty"`
}

// IP returns the network origin or an empty string when unavailable.
func (v *VerificationContext) IP() string {
	if v == nil || v.IPAddress == nil {
		return ""
	}
	return *v.IPAddress
}
