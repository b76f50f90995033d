package auditchain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
)

// GenesisHash is the PrevHash of the first entry in every document trail.
const GenesisHash = ""

// hashedEntry is the canonical shape that is hashed. Field order is fixed
// and map keys in Details are sorted by encoding/json.
type hashedEntry struct {
	EntryID    string         `json:"entry_id"`
	DocumentID string         `json:"document_id"`
	Sequence   int64          `json:"sequence"`
	Action     string         `json:"action"`
	Timestamp  string         `json:"timestamp"`
	IPAddress  string         `json:"ip_address"`
	Details    map[string]any `json:"details"`
}

// ComputeHash returns sha256(prevHash | sequence | canonical entry JSON) as hex.
func ComputeHash(prevHash string, entry domain.AuditLogEntry) (string, error) {
	payload, err := json.Marshal(hashedEntry{
		EntryID:    entry.EntryID,
		DocumentID: entry.DocumentID,
		Sequence:   entry.Sequence,
		Action:     string(entry.Action),
		Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339Nano),
		IPAddress:  entry.IPAddress,
		Details:    entry.Details,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode audit entry %s: %w", entry.EntryID, err)
	}
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte(fmt.Sprintf("|%d|", entry.Sequence)))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Seal fills Sequence, PrevHash and Hash of entry given the current head of
// the trail (nil for an empty trail).
// Timestamps are truncated to microseconds, the precision Postgres stores.
func Seal(head *domain.AuditLogEntry, entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	entry.Timestamp = entry.Timestamp.UTC().Truncate(time.Microsecond)
	entry.Sequence = 1
	entry.PrevHash = GenesisHash
	if head != nil {
		entry.Sequence = head.Sequence + 1
		entry.PrevHash = head.Hash
	}
	hash, err := ComputeHash(entry.PrevHash, entry)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}
	entry.Hash = hash
	return entry, nil
}

// Verify walks entries (which must be in sequence order) and reports the
// first entry whose linkage or hash does not match.
func Verify(documentID string, entries []domain.AuditLogEntry) domain.TrailVerification {
	result := domain.TrailVerification{DocumentID: documentID, Entries: len(entries), Valid: true}
	prevHash := GenesisHash
	for i, e := range entries {
		seq := e.Sequence
		expectedSeq := int64(i + 1)
		switch {
		case e.Sequence != expectedSeq:
			result.Reason = fmt.Sprintf("expected sequence %d, found %d", expectedSeq, e.Sequence)
		case e.PrevHash != prevHash:
			result.Reason = "previous hash does not match predecessor"
		default:
			hash, err := ComputeHash(prevHash, e)
			if err != nil {
				result.Reason = err.Error()
			} else if hash != e.Hash {
				result.Reason = "entry hash does not match its content"
			}
		}
		if result.Reason != "" {
			result.Valid = false
			result.BrokenSequence = &seq
			return result
		}
		prevHash = e.Hash
	}
	return result
}
