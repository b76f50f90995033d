package models

import "time"

// AuditLog is the row shape of the audit_logs table.
type AuditLog struct {
	EntryID    string    `json:"entryID"`
	DocumentID string    `json:"documentID"`
	Sequence   int64     `json:"sequence"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	IPAddress  *string   `json:"ipAddress"`
	Details    []byte    `json:"details"` // JSONB
	PrevHash   string    `json:"prevHash"`
	Hash       string    `json:"hash"`
}
