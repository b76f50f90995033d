package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/models"
)

// ToModelAuditLog converts a sealed domain.AuditLogEntry to its row shape.
func ToModelAuditLog(d domain.AuditLogEntry) (models.AuditLog, error) {
	details := d.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("failed to encode details for audit entry %s: %w", d.EntryID, err)
	}
	m := models.AuditLog{
		EntryID:    d.EntryID,
		DocumentID: d.DocumentID,
		Sequence:   d.Sequence,
		Action:     string(d.Action),
		Timestamp:  d.Timestamp,
		Details:    raw,
		PrevHash:   d.PrevHash,
		Hash:       d.Hash,
	}
	if d.IPAddress != "" {
		ip := d.IPAddress
		m.IPAddress = &ip
	}
	return m, nil
}

// ToDomainAuditLog converts an audit_logs row to a domain.AuditLogEntry.
func ToDomainAuditLog(m models.AuditLog) (domain.AuditLogEntry, error) {
	d := domain.AuditLogEntry{
		EntryID:    m.EntryID,
		DocumentID: m.DocumentID,
		Sequence:   m.Sequence,
		Action:     domain.AuditAction(m.Action),
		Timestamp:  m.Timestamp.UTC(),
		PrevHash:   m.PrevHash,
		Hash:       m.Hash,
	}
	if m.IPAddress != nil {
		d.IPAddress = *m.IPAddress
	}
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &d.Details); err != nil {
			return domain.AuditLogEntry{}, fmt.Errorf("failed to decode details for audit entry %s: %w", m.EntryID, err)
		}
		if len(d.Details) == 0 {
			d.Details = nil
		}
	}
	return d, nil
}
