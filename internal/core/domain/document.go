package domain

import "time"

// DocumentStatus indicates where a document is in its signing lifecycle.
type DocumentStatus string

const (
	DocumentDraft  DocumentStatus = "draft"
	DocumentSent   DocumentStatus = "sent"
	DocumentSigned DocumentStatus = "signed"
	// DocumentExpired is derived at read time and never persisted.
	DocumentExpired DocumentStatus = "expired"
)

// IsValid reports whether s is one of the persisted statuses.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentDraft, DocumentSent, DocumentSigned:
		return true
	}
	return false
}

// ContentSection is one ordered block of rendered document content.
// The signing workflow treats it as opaque text.
type ContentSection struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Document is a rendered document dispatched for signatures.
type Document struct {
	DocumentID string           `json:"documentID"`
	ClientID   string           `json:"clientID"`
	Title      string           `json:"title"`
	Status     DocumentStatus   `json:"status"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty"`
	SignedAt   *time.Time       `json:"signedAt,omitempty"`
	Sections   []ContentSection `json:"sections"`
	AuditFields
}

// EffectiveStatus evaluates expiry against now. A signed document is never
// retroactively expired.
func (d *Document) EffectiveStatus(now time.Time) DocumentStatus {
	if d.Status == DocumentSigned {
		return DocumentSigned
	}
	if d.ExpiresAt != nil && d.ExpiresAt.Before(now) {
		return DocumentExpired
	}
	return d.Status
}

// IsLocked reports whether the document reached the terminal signed status.
func (d *Document) IsLocked() bool {
	return d.Status == DocumentSigned
}
