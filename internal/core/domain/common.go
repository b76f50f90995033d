package domain

import "time"

// AuditFields holds standard bookkeeping information for domain entities.
// CreatedBy/LastUpdatedBy hold the acting principal (operator user ID or signer signature ID).
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}
