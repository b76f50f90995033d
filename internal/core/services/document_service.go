package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/google/uuid"
)

// DocumentService creates documents with their signer set and reads them back.
type DocumentService struct {
	BaseService
	documents  portsrepo.DocumentStore
	signatures portsrepo.SignatureReader
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(documents portsrepo.DocumentStore, signatures portsrepo.SignatureReader, clock func() time.Time) *DocumentService {
	return &DocumentService{
		BaseService: BaseService{Clock: clock},
		documents:   documents,
		signatures:  signatures,
	}
}

var _ portssvc.DocumentSvc = (*DocumentService)(nil)

// DispatchDocument stores the document as a draft with its signers and then
// marks it sent.
func (s *DocumentService) DispatchDocument(ctx context.Context, req dto.DispatchDocumentRequest, operatorID string) (*domain.Document, []domain.Signature, error) {
	if err := dto.Validate(req); err != nil {
		return nil, nil, err
	}
	now := s.Now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, nil, fmt.Errorf("%w: expiresAt must be in the future", apperrors.ErrValidation)
	}

	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     operatorID,
		LastUpdatedAt: now,
		LastUpdatedBy: operatorID,
	}

	sections := make([]domain.ContentSection, 0, len(req.Sections))
	for _, sec := range req.Sections {
		sections = append(sections, domain.ContentSection{Key: sec.Key, Title: sec.Title, Content: sec.Content})
	}

	doc := domain.Document{
		DocumentID:  uuid.NewString(),
		ClientID:    req.ClientID,
		Title:       req.Title,
		Status:      domain.DocumentSent,
		Sections:    sections,
		AuditFields: audit,
	}
	if req.ExpiresAt != nil {
		expires := req.ExpiresAt.UTC()
		doc.ExpiresAt = &expires
	}

	required := 0
	signatures := make([]domain.Signature, 0, len(req.Signers))
	for _, signer := range req.Signers {
		isRequired := signer.IsRequired == nil || *signer.IsRequired
		if isRequired {
			required++
		}
		signatures = append(signatures, domain.Signature{
			SignatureID: uuid.NewString(),
			DocumentID:  doc.DocumentID,
			SignerName:  signer.Name,
			SignerEmail: signer.Email,
			Role:        signer.Role,
			IsRequired:  isRequired,
			SortOrder:   signer.SortOrder,
			AuditFields: audit,
		})
	}
	if required == 0 {
		return nil, nil, fmt.Errorf("%w: at least one signer must be required", apperrors.ErrValidation)
	}

	// Stored as sent with its signer set in one write; a failure leaves nothing behind.
	if err := s.documents.SaveDocument(ctx, doc, signatures); err != nil {
		s.LogError(ctx, err, "Failed to save document", slog.String("document_id", doc.DocumentID))
		return nil, nil, wrapStorage("save document "+doc.DocumentID, err)
	}

	s.LogInfo(ctx, "Document dispatched",
		slog.String("document_id", doc.DocumentID),
		slog.Int("signers", len(signatures)),
		slog.Int("required", required))
	return &doc, signatures, nil
}

// GetDocumentWithSignatures returns the document and its ordered signer set.
func (s *DocumentService) GetDocumentWithSignatures(ctx context.Context, documentID string) (*domain.Document, []domain.Signature, error) {
	doc, err := s.documents.FindDocumentByID(ctx, documentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find document", slog.String("document_id", documentID))
			return nil, nil, wrapStorage("load document "+documentID, err)
		}
		return nil, nil, err
	}
	sigs, err := s.signatures.ListSignaturesByDocument(ctx, documentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list signatures", slog.String("document_id", documentID))
		return nil, nil, wrapStorage("list signatures of document "+documentID, err)
	}
	return doc, sigs, nil
}
