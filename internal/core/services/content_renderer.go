package services

import (
	"context"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
)

// PassthroughRenderer returns stored sections unchanged. Template expansion
// lives with the document authoring collaborator.
type PassthroughRenderer struct{}

var _ portssvc.ContentRenderer = PassthroughRenderer{}

func (PassthroughRenderer) Render(_ context.Context, document domain.Document) ([]domain.ContentSection, error) {
	return append([]domain.ContentSection(nil), document.Sections...), nil
}

// NoopPublisher drops completion events. It is used when no broker is configured.
type NoopPublisher struct{}

var _ portssvc.CompletionPublisher = NoopPublisher{}

func (NoopPublisher) PublishCompleted(context.Context, domain.CompletionEvent) error { return nil }
