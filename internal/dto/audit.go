package dto

import (
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// ListAuditEntriesParams defines query parameters for listing a document's audit trail.
type ListAuditEntriesParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// ListAuditEntriesResponse is a page of the audit trail.
type ListAuditEntriesResponse struct {
	Entries   []domain.AuditLogEntry `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}
