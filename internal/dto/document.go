package dto

import (
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// SectionRequest is one ordered content section supplied by the template collaborator.
type SectionRequest struct {
	Key     string `json:"key" validate:"required" binding:"required"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SignerRequest designates one signer of a dispatched document.
type SignerRequest struct {
	Name       string `json:"name" validate:"required,max=200" binding:"required,max=200"`
	Email      string `json:"email" validate:"required,email" binding:"required,email"`
	Role       string `json:"role" validate:"max=100" binding:"max=100"`
	IsRequired *bool  `json:"isRequired"` // Defaults to true
	SortOrder  int    `json:"sortOrder" validate:"min=0" binding:"min=0"`
}

// DispatchDocumentRequest creates a rendered document and its signer set and sends it.
type DispatchDocumentRequest struct {
	ClientID  string           `json:"clientID" validate:"required" binding:"required"`
	Title     string           `json:"title" validate:"required,max=300" binding:"required,max=300"`
	ExpiresAt *time.Time       `json:"expiresAt"`
	Sections  []SectionRequest `json:"sections" validate:"dive" binding:"dive"`
	Signers   []SignerRequest  `json:"signers" validate:"required,min=1,dive" binding:"required,min=1,dive"`
}

// SignatureResponse is the public view of a signature record (never the artifact).
type SignatureResponse struct {
	SignatureID  string                      `json:"signatureID"`
	SignerName   string                      `json:"signerName"`
	SignerEmail  string                      `json:"signerEmail"`
	Role         string                      `json:"role"`
	IsRequired   bool                        `json:"isRequired"`
	SortOrder    int                         `json:"sortOrder"`
	SignedAt     *time.Time                  `json:"signedAt,omitempty"`
	Verification *domain.VerificationContext `json:"verification,omitempty"`
}

// DocumentResponse is the public view of a document.
type DocumentResponse struct {
	DocumentID string                  `json:"documentID"`
	ClientID   string                  `json:"clientID"`
	Title      string                  `json:"title"`
	Status     domain.DocumentStatus   `json:"status"`
	ExpiresAt  *time.Time              `json:"expiresAt,omitempty"`
	SignedAt   *time.Time              `json:"signedAt,omitempty"`
	Sections   []domain.ContentSection `json:"sections"`
}

// DocumentWithSignaturesResponse pairs a document with its signer set.
type DocumentWithSignaturesResponse struct {
	Document   DocumentResponse    `json:"document"`
	Signatures []SignatureResponse `json:"signatures"`
}

// SigningLinkResponse carries the per-signer token used on signing routes.
type SigningLinkResponse struct {
	SignatureID string `json:"signatureID"`
	SignerEmail string `json:"signerEmail"`
	Token       string `json:"token"`
}

// DispatchDocumentResponse is returned after a document is dispatched.
type DispatchDocumentResponse struct {
	Document   DocumentResponse      `json:"document"`
	Signatures []SignatureResponse   `json:"signatures"`
	Links      []SigningLinkResponse `json:"links"`
}

// ToDocumentResponse converts a domain.Document, reporting its effective status at now.
func ToDocumentResponse(d *domain.Document, now time.Time) DocumentResponse {
	sections := d.Sections
	if sections == nil {
		sections = []domain.ContentSection{}
	}
	return DocumentResponse{
		DocumentID: d.DocumentID,
		ClientID:   d.ClientID,
		Title:      d.Title,
		Status:     d.EffectiveStatus(now),
		ExpiresAt:  d.ExpiresAt,
		SignedAt:   d.SignedAt,
		Sections:   sections,
	}
}

// ToSignatureResponse converts a domain.Signature.
func ToSignatureResponse(s *domain.Signature) SignatureResponse {
	return SignatureResponse{
		SignatureID:  s.SignatureID,
		SignerName:   s.SignerName,
		SignerEmail:  s.SignerEmail,
		Role:         s.Role,
		IsRequired:   s.IsRequired,
		SortOrder:    s.SortOrder,
		SignedAt:     s.SignedAt,
		Verification: s.Verification,
	}
}

// ToSignatureResponses converts a slice of domain.Signature.
func ToSignatureResponses(sigs []domain.Signature) []SignatureResponse {
	responses := make([]SignatureResponse, len(sigs))
	for i := range sigs {
		responses[i] = ToSignatureResponse(&sigs[i])
	}
	return responses
}
