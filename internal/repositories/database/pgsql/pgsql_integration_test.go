//go:build integration

package pgsql

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/SscSPs/doc_signing_app/internal/utils/auditchain"
	"github.com/SscSPs/doc_signing_app/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool  *pgxpool.Pool
	testRepos portsrepo.RepositoryProvider
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("doc_signing"),
		tcpostgres.WithUsername("signing"),
		tcpostgres.WithPassword("signing"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		slog.Error("failed to start postgres container", slog.String("error", err.Error()))
		os.Exit(1)
	}

	code := func() int {
		defer func() { _ = testcontainers.TerminateContainer(container) }()

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			slog.Error("failed to get connection string", slog.String("error", err.Error()))
			return 1
		}
		if err := database.RunMigrations(dsn, "file://../../../../migrations", slog.Default()); err != nil {
			slog.Error("failed to migrate", slog.String("error", err.Error()))
			return 1
		}
		testPool, err = database.NewPgxPool(ctx, dsn, true)
		if err != nil {
			slog.Error("failed to open pool", slog.String("error", err.Error()))
			return 1
		}
		defer database.ClosePgxPool(testPool)

		testRepos = NewRepositoryProvider(testPool)
		return m.Run()
	}()
	os.Exit(code)
}

func seedDocument(t *testing.T, required ...bool) (domain.Document, []domain.Signature) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(24 * time.Hour)
	doc := domain.Document{
		DocumentID: uuid.NewString(),
		ClientID:   "client-1",
		Title:      "Engagement letter",
		Status:     domain.DocumentDraft,
		ExpiresAt:  &expires,
		Sections:   []domain.ContentSection{{Key: "terms", Title: "Terms", Content: "The parties agree."}},
		AuditFields: domain.AuditFields{
			CreatedAt: now, CreatedBy: "operator-1", LastUpdatedAt: now, LastUpdatedBy: "operator-1",
		},
	}
	sigs := make([]domain.Signature, len(required))
	for i, req := range required {
		sigs[i] = domain.Signature{
			SignatureID: uuid.NewString(),
			DocumentID:  doc.DocumentID,
			SignerName:  "Signer",
			SignerEmail: "signer@example.com",
			IsRequired:  req,
			SortOrder:   i,
			AuditFields: doc.AuditFields,
		}
	}
	require.NoError(t, testRepos.DocumentRepo.SaveDocument(context.Background(), doc, sigs))
	return doc, sigs
}

func captureContext() domain.VerificationContext {
	ip := "203.0.113.10"
	return domain.VerificationContext{
		CapturedAt: time.Now().UTC(),
		IPAddress:  &ip,
		Location:   &domain.GeoLocation{City: "Lisbon", Country: "PT"},
		UserAgent:  "integration-test",
	}
}

func TestDocumentRepository_SaveFindAndTransitions(t *testing.T) {
	ctx := context.Background()
	doc, sigs := seedDocument(t, true, false)

	err := testRepos.DocumentRepo.SaveDocument(ctx, doc, sigs)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	got, err := testRepos.DocumentRepo.FindDocumentByID(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentDraft, got.Status)
	assert.Equal(t, doc.Sections, got.Sections)

	_, err = testRepos.DocumentRepo.FindDocumentByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	sent, err := testRepos.DocumentRepo.MarkSent(ctx, doc.DocumentID, time.Now())
	require.NoError(t, err)
	assert.True(t, sent)
	sent, err = testRepos.DocumentRepo.MarkSent(ctx, doc.DocumentID, time.Now())
	require.NoError(t, err)
	assert.False(t, sent)

	_, err = testRepos.DocumentRepo.TransitionToSigned(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDocumentRepository_TransitionToSignedIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	doc, _ := seedDocument(t, true)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := testRepos.DocumentRepo.TransitionToSigned(ctx, doc.DocumentID, time.Now())
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	got, err := testRepos.DocumentRepo.FindDocumentByID(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.True(t, got.IsLocked())
	assert.NotNil(t, got.SignedAt)
}

func TestSignatureRepository_CaptureIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	doc, sigs := seedDocument(t, true, true, false)

	remaining, err := testRepos.SignatureRepo.CountRemainingRequiredUnsigned(ctx, doc.DocumentID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := testRepos.SignatureRepo.CaptureSignature(ctx, sigs[0].SignatureID, []byte("png"), "image/png", captureContext())
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrAlreadySigned)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	captured, err := testRepos.SignatureRepo.FindSignatureByID(ctx, sigs[0].SignatureID)
	require.NoError(t, err)
	require.NotNil(t, captured.Verification)
	assert.Equal(t, "203.0.113.10", captured.Verification.IP())
	assert.Equal(t, "Lisbon", captured.Verification.Location.City)

	remaining, err = testRepos.SignatureRepo.CountRemainingRequiredUnsigned(ctx, doc.DocumentID, sigs[1].SignatureID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = testRepos.SignatureRepo.CaptureSignature(ctx, "missing", []byte("png"), "image/png", captureContext())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuditRepository_AppendEntryOnceIsPerSignature(t *testing.T) {
	ctx := context.Background()
	doc, sigs := seedDocument(t, true, true)

	appendSigned := func(signatureID string) bool {
		_, ok, err := testRepos.AuditRepo.AppendEntryOnce(ctx, domain.AuditLogEntry{
			EntryID:    uuid.NewString(),
			DocumentID: doc.DocumentID,
			Action:     domain.AuditSigned,
			Timestamp:  time.Now().UTC(),
			Details:    map[string]any{"signature_id": signatureID},
		})
		require.NoError(t, err)
		return ok
	}

	assert.True(t, appendSigned(sigs[0].SignatureID))
	assert.True(t, appendSigned(sigs[1].SignatureID))
	assert.False(t, appendSigned(sigs[0].SignatureID))

	entries, err := testRepos.AuditRepo.ListAllEntriesByDocument(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAuditRepository_ChainUnderConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	doc, _ := seedDocument(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := testRepos.AuditRepo.AppendEntry(ctx, domain.AuditLogEntry{
				EntryID:    uuid.NewString(),
				DocumentID: doc.DocumentID,
				Action:     domain.AuditViewed,
				Timestamp:  time.Now().UTC(),
				Details:    map[string]any{"state": "ready"},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var once sync.WaitGroup
	var appended atomic.Int32
	for i := 0; i < 5; i++ {
		once.Add(1)
		go func() {
			defer once.Done()
			_, ok, err := testRepos.AuditRepo.AppendEntryOnce(ctx, domain.AuditLogEntry{
				EntryID:    uuid.NewString(),
				DocumentID: doc.DocumentID,
				Action:     domain.AuditCompleted,
				Timestamp:  time.Now().UTC(),
			})
			assert.NoError(t, err)
			if ok {
				appended.Add(1)
			}
		}()
	}
	once.Wait()
	assert.Equal(t, int32(1), appended.Load())

	entries, err := testRepos.AuditRepo.ListAllEntriesByDocument(ctx, doc.DocumentID)
	require.NoError(t, err)
	require.Len(t, entries, 11)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Sequence)
	}
	assert.Equal(t, domain.AuditCompleted, entries[10].Action)
	assert.True(t, auditchain.Verify(doc.DocumentID, entries).Valid)

	page, next, err := testRepos.AuditRepo.ListEntriesByDocument(ctx, doc.DocumentID, 4, nil)
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.NotNil(t, next)
	page, _, err = testRepos.AuditRepo.ListEntriesByDocument(ctx, doc.DocumentID, 4, next)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page[0].Sequence)

	_, err = testPool.Exec(ctx, `DELETE FROM audit_logs WHERE document_id = $1`, doc.DocumentID)
	assert.Error(t, err, "audit_logs must be append-only")
}
