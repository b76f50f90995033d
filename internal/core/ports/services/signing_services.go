package services

import (
	"context"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/dto"
)

// SigningSvc is the completion coordinator: it captures signatures and
// performs the at-most-once lock transition.
type SigningSvc interface {
	// SignDocument captures one signer's signature and re-evaluates completion.
	SignDocument(ctx context.Context, cmd domain.SignCommand) (*domain.SignResult, error)

	// RecheckCompletion re-runs the count-and-transition step. It is idempotent.
	RecheckCompletion(ctx context.Context, documentID string) (*domain.CompletionResult, error)
}

// AccessSvc is the read-path gate used before rendering a signing page.
type AccessSvc interface {
	ViewForSigning(ctx context.Context, signer domain.SignerIdentity, evidence domain.RequestEvidence) (*domain.ViewResult, error)
}

// DocumentSvc covers the dispatch collaborator surface: creating a document
// with its signer set and reading it back.
type DocumentSvc interface {
	DispatchDocument(ctx context.Context, req dto.DispatchDocumentRequest, operatorID string) (*domain.Document, []domain.Signature, error)
	GetDocumentWithSignatures(ctx context.Context, documentID string) (*domain.Document, []domain.Signature, error)
}

// AuditSvc appends to and reads the audit trail.
type AuditSvc interface {
	// Record appends an entry and returns the stored entry or the store error.
	Record(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, error)

	// RecordOnce appends an entry unless the trail already has one with the
	// same action and signature id. It reports whether this call appended.
	RecordOnce(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, bool, error)

	// RecordBestEffort appends an entry and only logs failures.
	RecordBestEffort(ctx context.Context, entry domain.AuditLogEntry)

	ListTrail(ctx context.Context, documentID string, params dto.ListAuditEntriesParams) (*dto.ListAuditEntriesResponse, error)
	VerifyTrail(ctx context.Context, documentID string) (*domain.TrailVerification, error)
}

// VerificationCollector gathers request-time evidence. It never fails.
type VerificationCollector interface {
	Collect(ctx context.Context, evidence domain.RequestEvidence) domain.VerificationContext
}

// GeoLocator resolves an approximate location. A nil result means unknown.
type GeoLocator interface {
	Locate(ctx context.Context, ip string, headers map[string]string) (*domain.GeoLocation, error)
}

// ContentRenderer expands placeholders in section text. Its output is opaque.
type ContentRenderer interface {
	Render(ctx context.Context, document domain.Document) ([]domain.ContentSection, error)
}

// CompletionPublisher hands completed documents to downstream consumers.
type CompletionPublisher interface {
	PublishCompleted(ctx context.Context, event domain.CompletionEvent) error
}
