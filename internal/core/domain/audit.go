package domain

import "time"

// AuditAction is the kind of workflow event recorded in the audit trail.
type AuditAction string

const (
	AuditViewed    AuditAction = "viewed"
	AuditSigned    AuditAction = "signed"
	AuditCompleted AuditAction = "completed"
	AuditExpired   AuditAction = "expired"
)

// AuditLogEntry is one immutable record in a document's audit trail.
// Sequence is assigned by the store and totally orders entries per document;
// Hash chains each entry to its predecessor so tampering is detectable.
type AuditLogEntry struct {
	EntryID    string         `json:"entryID"`
	DocumentID string         `json:"documentID"`
	Sequence   int64          `json:"sequence"`
	Action     AuditAction    `json:"action"`
	Timestamp  time.Time      `json:"timestamp"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	PrevHash   string         `json:"prevHash"`
	Hash       string         `json:"hash"`
}

// SignatureID returns the signature the entry refers to, or "" when the
// entry is document-wide.
func (e AuditLogEntry) SignatureID() string {
	id, _ := e.Details["signature_id"].(string)
	return id
}

// SameSubject reports whether other records the same action for the same
// signature (or for the whole document when neither names one).
func (e AuditLogEntry) SameSubject(other AuditLogEntry) bool {
	return e.Action == other.Action && e.SignatureID() == other.SignatureID()
}

// TrailVerification is the outcome of recomputing a document's hash chain.
type TrailVerification struct {
	DocumentID     string `json:"documentID"`
	Entries        int    `json:"entries"`
	Valid          bool   `json:"valid"`
	BrokenSequence *int64 `json:"brokenSequence,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
