package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/SscSPs/doc_signing_app/internal/utils/auditchain"
	"github.com/SscSPs/doc_signing_app/internal/utils/pagination"
)

// Store keeps documents, signatures and audit trails in process memory for
// tests and local development. Each conditional write is atomic under mu,
// which only holds within a single process.
type Store struct {
	mu         sync.RWMutex
	documents  map[string]*domain.Document
	signatures map[string]*domain.Signature
	byDocument map[string][]string
	trails     map[string][]domain.AuditLogEntry
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents:  make(map[string]*domain.Document),
		signatures: make(map[string]*domain.Signature),
		byDocument: make(map[string][]string),
		trails:     make(map[string][]domain.AuditLogEntry),
	}
}

var (
	_ portsrepo.DocumentStore   = (*Store)(nil)
	_ portsrepo.SignatureLedger = (*Store)(nil)
	_ portsrepo.AuditLog        = (*Store)(nil)
)

// NewRepositoryProvider exposes one shared Store through every repository port.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		DocumentRepo:  store,
		SignatureRepo: store,
		AuditRepo:     store,
	}
}

func copyDocument(d *domain.Document) *domain.Document {
	out := *d
	out.Sections = append([]domain.ContentSection(nil), d.Sections...)
	if d.ExpiresAt != nil {
		t := *d.ExpiresAt
		out.ExpiresAt = &t
	}
	if d.SignedAt != nil {
		t := *d.SignedAt
		out.SignedAt = &t
	}
	return &out
}

func copySignature(s *domain.Signature) *domain.Signature {
	out := *s
	out.Artifact = append([]byte(nil), s.Artifact...)
	if s.SignedAt != nil {
		t := *s.SignedAt
		out.SignedAt = &t
	}
	if s.Verification != nil {
		v := *s.Verification
		out.Verification = &v
	}
	return &out
}

// SaveDocument stores a document and its signer set.
func (s *Store) SaveDocument(_ context.Context, document domain.Document, signatures []domain.Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[document.DocumentID]; exists {
		return fmt.Errorf("%w: document %s", apperrors.ErrDuplicate, document.DocumentID)
	}
	for i := range signatures {
		if _, exists := s.signatures[signatures[i].SignatureID]; exists {
			return fmt.Errorf("%w: signature %s", apperrors.ErrDuplicate, signatures[i].SignatureID)
		}
	}
	s.documents[document.DocumentID] = copyDocument(&document)
	ids := make([]string, 0, len(signatures))
	for i := range signatures {
		s.signatures[signatures[i].SignatureID] = copySignature(&signatures[i])
		ids = append(ids, signatures[i].SignatureID)
	}
	s.byDocument[document.DocumentID] = ids
	return nil
}

// FindDocumentByID returns a copy of the stored document.
func (s *Store) FindDocumentByID(_ context.Context, documentID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[documentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("document " + documentID + " not found")
	}
	return copyDocument(d), nil
}

// MarkSent moves a draft document to sent.
func (s *Store) MarkSent(_ context.Context, documentID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[documentID]
	if !ok {
		return false, apperrors.NewNotFoundError("document " + documentID + " not found")
	}
	if d.Status != domain.DocumentDraft {
		return false, nil
	}
	d.Status = domain.DocumentSent
	d.LastUpdatedAt = at
	return true, nil
}

// TransitionToSigned is the compare-and-swap on document status.
func (s *Store) TransitionToSigned(_ context.Context, documentID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[documentID]
	if !ok {
		return false, apperrors.NewNotFoundError("document " + documentID + " not found")
	}
	if d.Status == domain.DocumentSigned {
		return false, nil
	}
	d.Status = domain.DocumentSigned
	signedAt := at
	d.SignedAt = &signedAt
	d.LastUpdatedAt = at
	return true, nil
}

// FindSignatureByID returns a copy of the stored signature.
func (s *Store) FindSignatureByID(_ context.Context, signatureID string) (*domain.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signatures[signatureID]
	if !ok {
		return nil, apperrors.NewNotFoundError("signature " + signatureID + " not found")
	}
	return copySignature(sig), nil
}

// ListSignaturesByDocument returns the document's signatures ordered by sort order.
func (s *Store) ListSignaturesByDocument(_ context.Context, documentID string) ([]domain.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDocument[documentID]
	out := make([]domain.Signature, 0, len(ids))
	for _, id := range ids {
		out = append(out, *copySignature(s.signatures[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].SignatureID < out[j].SignatureID
	})
	return out, nil
}

// CountRemainingRequiredUnsigned counts required, uncaptured signatures.
func (s *Store) CountRemainingRequiredUnsigned(_ context.Context, documentID, excludingSignatureID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, id := range s.byDocument[documentID] {
		sig := s.signatures[id]
		if id == excludingSignatureID || !sig.IsRequired || sig.SignedAt != nil {
			continue
		}
		count++
	}
	return count, nil
}

// CaptureSignature is the compare-and-swap on signed-at.
func (s *Store) CaptureSignature(_ context.Context, signatureID string, artifact []byte, artifactType string, vctx domain.VerificationContext) (*domain.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.signatures[signatureID]
	if !ok {
		return nil, apperrors.NewNotFoundError("signature " + signatureID + " not found")
	}
	if sig.SignedAt != nil {
		return nil, fmt.Errorf("%w: signature %s", apperrors.ErrAlreadySigned, signatureID)
	}
	signedAt := vctx.CapturedAt
	sig.SignedAt = &signedAt
	sig.Artifact = append([]byte(nil), artifact...)
	sig.ArtifactType = artifactType
	v := vctx
	sig.Verification = &v
	sig.LastUpdatedAt = signedAt
	sig.LastUpdatedBy = signatureID
	return copySignature(sig), nil
}

// AppendEntry seals the entry onto the document's trail.
func (s *Store) AppendEntry(_ context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(entry)
}

func (s *Store) appendLocked(entry domain.AuditLogEntry) (*domain.AuditLogEntry, error) {
	for _, e := range s.trails[entry.DocumentID] {
		if e.EntryID == entry.EntryID {
			return nil, fmt.Errorf("%w: audit entry %s", apperrors.ErrDuplicate, entry.EntryID)
		}
	}
	trail := s.trails[entry.DocumentID]
	var head *domain.AuditLogEntry
	if len(trail) > 0 {
		head = &trail[len(trail)-1]
	}
	sealed, err := auditchain.Seal(head, entry)
	if err != nil {
		return nil, err
	}
	s.trails[entry.DocumentID] = append(trail, sealed)
	return &sealed, nil
}

// AppendEntryOnce appends unless the trail already holds an entry with the
// same action for the same signature.
func (s *Store) AppendEntryOnce(_ context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trail := s.trails[entry.DocumentID]
	for i := range trail {
		if trail[i].SameSubject(entry) {
			existing := trail[i]
			return &existing, false, nil
		}
	}
	sealed, err := s.appendLocked(entry)
	if err != nil {
		return nil, false, err
	}
	return sealed, true, nil
}

// ListEntriesByDocument pages through a trail by sequence number.
func (s *Store) ListEntriesByDocument(_ context.Context, documentID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	if limit <= 0 {
		limit = 50
	}
	var after int64
	if nextToken != nil && *nextToken != "" {
		seq, err := pagination.DecodeSequenceToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		after = seq
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := make([]domain.AuditLogEntry, 0, limit)
	for _, e := range s.trails[documentID] {
		if e.Sequence <= after {
			continue
		}
		if len(page) == limit {
			token := pagination.EncodeSequenceToken(page[len(page)-1].Sequence)
			return page, &token, nil
		}
		page = append(page, e)
	}
	return page, nil, nil
}

// ListAllEntriesByDocument returns a copy of the whole trail.
func (s *Store) ListAllEntriesByDocument(_ context.Context, documentID string) ([]domain.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditLogEntry(nil), s.trails[documentID]...), nil
}
