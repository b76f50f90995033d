package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/models"
)

// ToModelDocument converts a domain.Document to its row shape.
func ToModelDocument(d domain.Document) (models.Document, error) {
	sections := d.Sections
	if sections == nil {
		sections = []domain.ContentSection{}
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to encode sections for document %s: %w", d.DocumentID, err)
	}
	return models.Document{
		DocumentID:  d.DocumentID,
		ClientID:    d.ClientID,
		Title:       d.Title,
		Status:      string(d.Status),
		ExpiresAt:   d.ExpiresAt,
		SignedAt:    d.SignedAt,
		Sections:    raw,
		AuditFields: toModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainDocument converts a documents row to a domain.Document.
func ToDomainDocument(m models.Document) (domain.Document, error) {
	var sections []domain.ContentSection
	if len(m.Sections) > 0 {
		if err := json.Unmarshal(m.Sections, &sections); err != nil {
			return domain.Document{}, fmt.Errorf("failed to decode sections for document %s: %w", m.DocumentID, err)
		}
	}
	return domain.Document{
		DocumentID:  m.DocumentID,
		ClientID:    m.ClientID,
		Title:       m.Title,
		Status:      domain.DocumentStatus(m.Status),
		ExpiresAt:   m.ExpiresAt,
		SignedAt:    m.SignedAt,
		Sections:    sections,
		AuditFields: toDomainAuditFields(m.AuditFields),
	}, nil
}

// Documents and signatures share the created/updated bookkeeping columns.
// The actor is an operator user ID, a signature ID or "system".

func toModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields(d)
}

func toDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields(m)
}
