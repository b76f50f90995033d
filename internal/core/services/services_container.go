package services

import (
	"time"

	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/platform/config"
	"github.com/SscSPs/doc_signing_app/internal/utils/geo"
)

type containerOptions struct {
	clock     func() time.Time
	locator   portssvc.GeoLocator
	renderer  portssvc.ContentRenderer
	publisher portssvc.CompletionPublisher
}

// ContainerOption customises collaborators of the service container.
type ContainerOption func(*containerOptions)

// WithClock sets the time source shared by all services.
func WithClock(clock func() time.Time) ContainerOption {
	return func(o *containerOptions) { o.clock = clock }
}

// WithGeoLocator replaces the header-based locator.
func WithGeoLocator(locator portssvc.GeoLocator) ContainerOption {
	return func(o *containerOptions) { o.locator = locator }
}

// WithRenderer replaces the passthrough content renderer.
func WithRenderer(renderer portssvc.ContentRenderer) ContainerOption {
	return func(o *containerOptions) { o.renderer = renderer }
}

// WithCompletionPublisher sends completion events to publisher.
func WithCompletionPublisher(publisher portssvc.CompletionPublisher) ContainerOption {
	return func(o *containerOptions) { o.publisher = publisher }
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ContainerOption) *portssvc.ServiceContainer {
	o := containerOptions{
		locator:  geo.NewHeaderLocator(),
		renderer: PassthroughRenderer{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	retry := DefaultRetryPolicy
	if cfg != nil {
		retry = RetryPolicy{Attempts: cfg.CompletionRetryAttempts, Backoff: cfg.CompletionRetryBackoff}
	}

	container := &portssvc.ServiceContainer{}
	container.Clock = (&BaseService{Clock: o.clock}).Now
	audit := NewAuditService(repos.AuditRepo, repos.DocumentRepo, o.clock)
	container.Audit = audit
	container.Collector = NewVerificationCollector(o.locator, o.clock)
	container.Document = NewDocumentService(repos.DocumentRepo, repos.SignatureRepo, o.clock)
	container.Signing = NewSigningService(repos.DocumentRepo, repos.SignatureRepo, audit, o.renderer, retry, o.clock).
		WithPublisher(o.publisher)
	container.Access = NewAccessService(repos.DocumentRepo, repos.SignatureRepo, audit, o.renderer, container.Collector, o.clock)

	return container
}
