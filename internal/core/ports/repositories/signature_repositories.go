package repositories

import (
	"context"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// SignatureReader defines read operations for signature records.
type SignatureReader interface {
	// FindSignatureByID returns apperrors.ErrNotFound when the record does not exist.
	FindSignatureByID(ctx context.Context, signatureID string) (*domain.Signature, error)

	// ListSignaturesByDocument returns the signer set ordered by sort order.
	ListSignaturesByDocument(ctx context.Context, documentID string) ([]domain.Signature, error)

	// CountRemainingRequiredUnsigned counts required signatures of the document
	// with no signed-at, ignoring excludingSignatureID (pass "" to count all).
	CountRemainingRequiredUnsigned(ctx context.Context, documentID, excludingSignatureID string) (int, error)
}

// SignatureWriter defines the write-once capture of a signature.
type SignatureWriter interface {
	// CaptureSignature sets the capture fields only if signed-at is still null.
	// A lost race returns apperrors.ErrAlreadySigned; nothing is overwritten.
	CaptureSignature(ctx context.Context, signatureID string, artifact []byte, artifactType string, vctx domain.VerificationContext) (*domain.Signature, error)
}

// SignatureLedger combines signature reads and writes.
type SignatureLedger interface {
	SignatureReader
	SignatureWriter
}
