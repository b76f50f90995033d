package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/models"
)

// ToModelSignature converts a domain.Signature to its row shape.
func ToModelSignature(d domain.Signature) (models.Signature, error) {
	m := models.Signature{
		SignatureID: d.SignatureID,
		DocumentID:  d.DocumentID,
		SignerName:  d.SignerName,
		SignerEmail: d.SignerEmail,
		Role:        d.Role,
		IsRequired:  d.IsRequired,
		SortOrder:   d.SortOrder,
		SignedAt:    d.SignedAt,
		Artifact:    d.Artifact,
		AuditFields: toModelAuditFields(d.AuditFields),
	}
	if d.ArtifactType != "" {
		m.ArtifactType = &d.ArtifactType
	}
	if v := d.Verification; v != nil {
		m.IPAddress = v.IPAddress
		if v.UserAgent != "" {
			ua := v.UserAgent
			m.UserAgent = &ua
		}
		loc, err := EncodeLocation(v.Location)
		if err != nil {
			return models.Signature{}, fmt.Errorf("signature %s: %w", d.SignatureID, err)
		}
		m.Location = loc
	}
	return m, nil
}

// ToDomainSignature converts a signatures row to a domain.Signature.
func ToDomainSignature(m models.Signature) (domain.Signature, error) {
	d := domain.Signature{
		SignatureID: m.SignatureID,
		DocumentID:  m.DocumentID,
		SignerName:  m.SignerName,
		SignerEmail: m.SignerEmail,
		Role:        m.Role,
		IsRequired:  m.IsRequired,
		SortOrder:   m.SortOrder,
		SignedAt:    m.SignedAt,
		Artifact:    m.Artifact,
		AuditFields: toDomainAuditFields(m.AuditFields),
	}
	if m.ArtifactType != nil {
		d.ArtifactType = *m.ArtifactType
	}
	if m.SignedAt != nil {
		v := &domain.VerificationContext{CapturedAt: *m.SignedAt, IPAddress: m.IPAddress}
		if m.UserAgent != nil {
			v.UserAgent = *m.UserAgent
		}
		if len(m.Location) > 0 {
			var loc domain.GeoLocation
			if err := json.Unmarshal(m.Location, &loc); err != nil {
				return domain.Signature{}, fmt.Errorf("failed to decode location for signature %s: %w", m.SignatureID, err)
			}
			v.Location = &loc
		}
		d.Verification = v
	}
	return d, nil
}

// ToDomainSignatureSlice converts rows in order.
func ToDomainSignatureSlice(ms []models.Signature) ([]domain.Signature, error) {
	out := make([]domain.Signature, 0, len(ms))
	for _, m := range ms {
		d, err := ToDomainSignature(m)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// EncodeLocation marshals a location to JSONB bytes; nil stays nil.
func EncodeLocation(loc *domain.GeoLocation) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode location: %w", err)
	}
	return raw, nil
}
