package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/utils/netutil"
)

// VerificationCollector assembles the evidence attached to a captured
// signature from request data. Missing pieces are left absent.
type VerificationCollector struct {
	BaseService
	locator portssvc.GeoLocator
}

// NewVerificationCollector creates a collector. A nil locator disables location lookup.
func NewVerificationCollector(locator portssvc.GeoLocator, clock func() time.Time) *VerificationCollector {
	return &VerificationCollector{BaseService: BaseService{Clock: clock}, locator: locator}
}

var _ portssvc.VerificationCollector = (*VerificationCollector)(nil)

// Collect never fails. ClientIP (already resolved through trusted proxies)
// wins over the raw socket address.
func (c *VerificationCollector) Collect(ctx context.Context, evidence domain.RequestEvidence) domain.VerificationContext {
	vctx := domain.VerificationContext{
		CapturedAt: c.Now(),
		UserAgent:  netutil.TruncateUserAgent(evidence.UserAgent),
	}

	for _, candidate := range []string{evidence.ClientIP, evidence.RemoteAddr} {
		if ip, ok := netutil.NormalizeIP(candidate); ok {
			vctx.IPAddress = &ip
			break
		}
	}

	if c.locator != nil {
		loc, err := c.locator.Locate(ctx, vctx.IP(), evidence.Headers)
		switch {
		case err != nil:
			c.LogDebug(ctx, "Location lookup failed", slog.String("error", err.Error()))
		case loc != nil && !loc.IsZero():
			vctx.Location = loc
		}
	}
	return vctx
}
