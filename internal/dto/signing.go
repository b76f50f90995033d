package dto

import (
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// SignDocumentRequest is the body of a signing attempt. Artifact is the
// base64-encoded drawn signature; emptiness and consent are checked by the service.
type SignDocumentRequest struct {
	Artifact     string `json:"artifact" binding:"omitempty,base64"`
	ArtifactType string `json:"artifactType" binding:"omitempty,oneof=image/png image/svg+xml application/json"`
	Consent      bool   `json:"consent"`
}

// SignDocumentResponse is returned after a successful capture.
type SignDocumentResponse struct {
	Document          DocumentResponse  `json:"document"`
	Signature         SignatureResponse `json:"signature"`
	Completed         bool              `json:"completed"`
	CompletionPending bool              `json:"completionPending"`
}

// CoSignerResponse is what a signer may see of the other parties: no
// contact details and no captured evidence.
type CoSignerResponse struct {
	SignatureID string     `json:"signatureID"`
	SignerName  string     `json:"signerName"`
	Role        string     `json:"role"`
	IsRequired  bool       `json:"isRequired"`
	SortOrder   int        `json:"sortOrder"`
	SignedAt    *time.Time `json:"signedAt,omitempty"`
}

// ViewForSigningResponse is returned when a signer opens their link.
// Only Signature, the caller's own record, carries verification evidence.
type ViewForSigningResponse struct {
	State      domain.ViewState   `json:"state"`
	Document   DocumentResponse   `json:"document"`
	Signature  SignatureResponse  `json:"signature"`
	Signatures []CoSignerResponse `json:"signatures"`
}

// ToCoSignerResponses projects a signer set for display on a signing page.
func ToCoSignerResponses(sigs []domain.Signature) []CoSignerResponse {
	responses := make([]CoSignerResponse, len(sigs))
	for i, s := range sigs {
		responses[i] = CoSignerResponse{
			SignatureID: s.SignatureID,
			SignerName:  s.SignerName,
			Role:        s.Role,
			IsRequired:  s.IsRequired,
			SortOrder:   s.SortOrder,
			SignedAt:    s.SignedAt,
		}
	}
	return responses
}

// CompletionResponse is returned by the recheck-completion operation.
type CompletionResponse struct {
	DocumentID   string                `json:"documentID"`
	Status       domain.DocumentStatus `json:"status"`
	Remaining    int                   `json:"remaining"`
	Completed    bool                  `json:"completed"`
	Transitioned bool                  `json:"transitioned"`
}

// ToCompletionResponse converts a domain.CompletionResult.
func ToCompletionResponse(r *domain.CompletionResult) CompletionResponse {
	return CompletionResponse{
		DocumentID:   r.DocumentID,
		Status:       r.Status,
		Remaining:    r.Remaining,
		Completed:    r.Completed,
		Transitioned: r.Transitioned,
	}
}
