package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// DocumentReader defines read operations for document data.
type DocumentReader interface {
	// FindDocumentByID returns apperrors.ErrNotFound when the document does not exist.
	FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)
}

// DocumentWriter defines the status mutations the signing workflow may perform.
type DocumentWriter interface {
	// SaveDocument persists a document together with its signer set in one unit.
	SaveDocument(ctx context.Context, document domain.Document, signatures []domain.Signature) error

	// MarkSent conditionally moves a draft document to sent. It reports
	// whether this call performed the transition.
	MarkSent(ctx context.Context, documentID string, at time.Time) (bool, error)

	// TransitionToSigned conditionally moves a document to signed. It returns
	// true only when this call performed the transition and false when the
	// document was already signed.
	TransitionToSigned(ctx context.Context, documentID string, at time.Time) (bool, error)
}

// DocumentStore combines document reads and writes.
type DocumentStore interface {
	DocumentReader
	DocumentWriter
}
