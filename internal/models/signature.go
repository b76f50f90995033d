package models

import "time"

// Signature is the row shape of the signatures table.
type Signature struct {
	SignatureID  string     `json:"signatureID"`
	DocumentID   string     `json:"documentID"`
	SignerName   string     `json:"signerName"`
	SignerEmail  string     `json:"signerEmail"`
	Role         string     `json:"role"`
	IsRequired   bool       `json:"isRequired"`
	SortOrder    int        `json:"sortOrder"`
	SignedAt     *time.Time `json:"signedAt"`
	Artifact     []byte     `json:"-"`
	ArtifactType *string    `json:"artifactType"`
	IPAddress    *string    `json:"ipAddress"`
	Location     []byte     `json:"location"` // JSONB {city,country,timezone}, nullable
	UserAgent    *string    `json:"userAgent"`
	AuditFields
}
