package repositories

import (
	"context"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// AuditLog is the append-only audit trail store. There is intentionally no
// update or delete operation.
type AuditLog interface {
	// AppendEntry assigns the next per-document sequence and chain hash, then
	// persists the entry. The returned entry carries the stored values.
	AppendEntry(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, error)

	// AppendEntryOnce appends the entry only if the document's trail has no
	// entry with the same action and the same details.signature_id yet. It
	// reports whether this call appended; when it did not, the existing entry
	// is returned.
	AppendEntryOnce(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, bool, error)

	// ListEntriesByDocument returns entries in sequence order using token-based
	// pagination. It returns the entries and a token for the next page, if any.
	ListEntriesByDocument(ctx context.Context, documentID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)

	// ListAllEntriesByDocument returns the full trail in sequence order.
	ListAllEntriesByDocument(ctx context.Context, documentID string) ([]domain.AuditLogEntry, error)
}
