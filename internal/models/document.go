package models

import "time"

// Document is the row shape of the documents table.
type Document struct {
	DocumentID string     `json:"documentID"`
	ClientID   string     `json:"clientID"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	SignedAt   *time.Time `json:"signedAt"`
	Sections   []byte     `json:"sections"` // JSONB ordered array of {key,title,content}
	AuditFields
}
