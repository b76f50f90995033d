package domain

import "time"

// Signature is the per-signer record created when a document is sent. Its
// capture fields (SignedAt, Artifact, Verification) are write-once.
type Signature struct {
	SignatureID  string               `json:"signatureID"`
	DocumentID   string               `json:"documentID"`
	SignerName   string               `json:"signerName"`
	SignerEmail  string               `json:"signerEmail"`
	Role         string               `json:"role"`
	IsRequired   bool                 `json:"isRequired"`
	SortOrder    int                  `json:"sortOrder"`
	SignedAt     *time.Time           `json:"signedAt,omitempty"`
	Artifact     []byte               `json:"-"`
	ArtifactType string               `json:"artifactType,omitempty"`
	Verification *VerificationContext `json:"verification,omitempty"`
	AuditFields
}

// IsSigned reports whether the signature has been captured.
func (s *Signature) IsSigned() bool {
	return s.SignedAt != nil
}

// SignerIdentity is the explicit per-request principal of a signer, taken
// from the signing link rather than ambient session state.
type SignerIdentity struct {
	DocumentID  string
	SignatureID string
}
