package services_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/repositories/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentStore is a mock type for the DocumentStore interface
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) SaveDocument(ctx context.Context, document domain.Document, signatures []domain.Signature) error {
	args := m.Called(ctx, document, signatures)
	return args.Error(0)
}

func (m *MockDocumentStore) MarkSent(ctx context.Context, documentID string, at time.Time) (bool, error) {
	args := m.Called(ctx, documentID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentStore) TransitionToSigned(ctx context.Context, documentID string, at time.Time) (bool, error) {
	args := m.Called(ctx, documentID, at)
	return args.Bool(0), args.Error(1)
}

// MockGeoLocator is a mock type for the GeoLocator interface
type MockGeoLocator struct {
	mock.Mock
}

func (m *MockGeoLocator) Locate(ctx context.Context, ip string, headers map[string]string) (*domain.GeoLocation, error) {
	args := m.Called(ctx, ip, headers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeoLocation), args.Error(1)
}

// MockCompletionPublisher is a mock type for the CompletionPublisher interface
type MockCompletionPublisher struct {
	mock.Mock
}

func (m *MockCompletionPublisher) PublishCompleted(ctx context.Context, event domain.CompletionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var errConnReset = errors.New("connection reset by peer")

// faultyStore wraps the in-memory store and injects storage failures.
type faultyStore struct {
	*memory.Store
	mu                 sync.Mutex
	transitionFailures int
	countFailures      int
	captureErr         error
	appendErr          error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.NewStore()}
}

func (f *faultyStore) take(counter *int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if *counter > 0 {
		*counter--
		return true
	}
	return false
}

func (f *faultyStore) TransitionToSigned(ctx context.Context, documentID string, at time.Time) (bool, error) {
	if f.take(&f.transitionFailures) {
		return false, errConnReset
	}
	return f.Store.TransitionToSigned(ctx, documentID, at)
}

func (f *faultyStore) CountRemainingRequiredUnsigned(ctx context.Context, documentID, excludingSignatureID string) (int, error) {
	if f.take(&f.countFailures) {
		return 0, errConnReset
	}
	return f.Store.CountRemainingRequiredUnsigned(ctx, documentID, excludingSignatureID)
}

func (f *faultyStore) CaptureSignature(ctx context.Context, signatureID string, artifact []byte, artifactType string, vctx domain.VerificationContext) (*domain.Signature, error) {
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.Store.CaptureSignature(ctx, signatureID, artifact, artifactType, vctx)
}

func (f *faultyStore) AppendEntry(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	return f.Store.AppendEntry(ctx, entry)
}

func (f *faultyStore) AppendEntryOnce(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, bool, error) {
	if f.appendErr != nil {
		return nil, false, f.appendErr
	}
	return f.Store.AppendEntryOnce(ctx, entry)
}

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// seedDocument stores a sent document with one signer per entry of required.
func seedDocument(t *testing.T, store *faultyStore, expiresAt *time.Time, required ...bool) (domain.Document, []domain.Signature) {
	t.Helper()
	docID := "doc-" + randomSuffix()
	doc := domain.Document{
		DocumentID: docID,
		ClientID:   "client-1",
		Title:      "Service Agreement",
		Status:     domain.DocumentSent,
		ExpiresAt:  expiresAt,
		Sections: []domain.ContentSection{
			{Key: "terms", Title: "Terms", Content: "The parties agree."},
		},
		AuditFields: domain.AuditFields{CreatedAt: testNow, CreatedBy: "operator", LastUpdatedAt: testNow, LastUpdatedBy: "operator"},
	}
	sigs := make([]domain.Signature, 0, len(required))
	for i, req := range required {
		sigs = append(sigs, domain.Signature{
			SignatureID: docID + "-sig-" + string(rune('a'+i)),
			DocumentID:  docID,
			SignerName:  "Signer " + string(rune('A'+i)),
			SignerEmail: string(rune('a'+i)) + "@example.com",
			Role:        "party",
			IsRequired:  req,
			SortOrder:   i,
		})
	}
	require.NoError(t, store.SaveDocument(context.Background(), doc, sigs))
	return doc, sigs
}

var (
	suffixMu sync.Mutex
	suffixN  int
)

func randomSuffix() string {
	suffixMu.Lock()
	defer suffixMu.Unlock()
	suffixN++
	return strconv.Itoa(suffixN)
}

func signCommand(sig domain.Signature) domain.SignCommand {
	ip := "203.0.113.10"
	return domain.SignCommand{
		DocumentID:   sig.DocumentID,
		SignatureID:  sig.SignatureID,
		Artifact:     []byte("data:image/png;base64,iVBORw0KGgo="),
		ArtifactType: "image/png",
		Consent:      true,
		Verification: domain.VerificationContext{
			CapturedAt: testNow,
			IPAddress:  &ip,
			UserAgent:  "Mozilla/5.0",
			Location:   &domain.GeoLocation{City: "Lisbon", Country: "PT"},
		},
	}
}

func actions(entries []domain.AuditLogEntry) []domain.AuditAction {
	out := make([]domain.AuditAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func countAction(entries []domain.AuditLogEntry, action domain.AuditAction) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
