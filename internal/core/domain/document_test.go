package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_EffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		status    DocumentStatus
		expiresAt *time.Time
		want      DocumentStatus
	}{
		{"sent without expiry", DocumentSent, nil, DocumentSent},
		{"sent before expiry", DocumentSent, &future, DocumentSent},
		{"sent at expiry instant", DocumentSent, &now, DocumentSent},
		{"sent after expiry", DocumentSent, &past, DocumentExpired},
		{"draft after expiry", DocumentDraft, &past, DocumentExpired},
		{"signed after expiry", DocumentSigned, &past, DocumentSigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Document{Status: tt.status, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, d.EffectiveStatus(now))
			assert.Equal(t, tt.status == DocumentSigned, d.IsLocked())
		})
	}
}

func TestDocumentStatus_IsValid(t *testing.T) {
	assert.True(t, DocumentDraft.IsValid())
	assert.True(t, DocumentSent.IsValid())
	assert.True(t, DocumentSigned.IsValid())
	assert.False(t, DocumentExpired.IsValid(), "expired is derived, never persisted")
	assert.False(t, DocumentStatus("void").IsValid())
}
