package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/core/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_RecordAssignsIDAndTimestamp(t *testing.T) {
	store := newFaultyStore()
	doc, _ := seedDocument(t, store, nil, true)
	svc := services.NewAuditService(store, store, fixedClock)

	stored, err := svc.Record(context.Background(), domain.AuditLogEntry{DocumentID: doc.DocumentID, Action: domain.AuditViewed})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.EntryID)
	assert.Equal(t, testNow, stored.Timestamp)
	assert.Equal(t, int64(1), stored.Sequence)
	assert.NotEmpty(t, stored.Hash)
}

func TestAuditService_RecordTreatsDuplicateEntryAsRecorded(t *testing.T) {
	store := newFaultyStore()
	doc, _ := seedDocument(t, store, nil, true)
	svc := services.NewAuditService(store, store, fixedClock)
	entry := domain.AuditLogEntry{EntryID: "entry-1", DocumentID: doc.DocumentID, Action: domain.AuditSigned}

	_, err := svc.Record(context.Background(), entry)
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), entry)
	require.NoError(t, err)

	entries, err := store.ListAllEntriesByDocument(context.Background(), doc.DocumentID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAuditService_RecordOnce(t *testing.T) {
	store := newFaultyStore()
	doc, _ := seedDocument(t, store, nil, true)
	svc := services.NewAuditService(store, store, fixedClock)
	ctx := context.Background()

	first, appended, err := svc.RecordOnce(ctx, domain.AuditLogEntry{DocumentID: doc.DocumentID, Action: domain.AuditCompleted})
	require.NoError(t, err)
	assert.True(t, appended)

	second, appended, err := svc.RecordOnce(ctx, domain.AuditLogEntry{DocumentID: doc.DocumentID, Action: domain.AuditCompleted})
	require.NoError(t, err)
	assert.False(t, appended)
	assert.Equal(t, first.EntryID, second.EntryID)

	store.appendErr = errConnReset
	_, _, err = svc.RecordOnce(ctx, domain.AuditLogEntry{DocumentID: doc.DocumentID, Action: domain.AuditExpired})
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestAuditService_ListTrailPages(t *testing.T) {
	store := newFaultyStore()
	doc, _ := seedDocument(t, store, nil, true)
	svc := services.NewAuditService(store, store, fixedClock)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Record(ctx, domain.AuditLogEntry{DocumentID: doc.DocumentID, Action: domain.AuditViewed})
		require.NoError(t, err)
	}

	page, err := svc.ListTrail(ctx, doc.DocumentID, dto.ListAuditEntriesParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	require.NotNil(t, page.NextToken)
	assert.Equal(t, int64(1), page.Entries[0].Sequence)

	var seen []int64
	for _, e := range page.Entries {
		seen = append(seen, e.Sequence)
	}
	for page.NextToken != nil {
		page, err = svc.ListTrail(ctx, doc.DocumentID, dto.ListAuditEntriesParams{Limit: 2, NextToken: page.NextToken})
		require.NoError(t, err)
		for _, e := range page.Entries {
			seen = append(seen, e.Sequence)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seen)

	bad := "not-a-token"
	_, err = svc.ListTrail(ctx, doc.DocumentID, dto.ListAuditEntriesParams{NextToken: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.ListTrail(ctx, "missing", dto.ListAuditEntriesParams{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuditService_VerifyTrail(t *testing.T) {
	store := newFaultyStore()
	doc, _ := seedDocument(t, store, nil, true)
	svc := services.NewAuditService(store, store, fixedClock)
	ctx := context.Background()

	empty, err := svc.VerifyTrail(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.True(t, empty.Valid)
	assert.Equal(t, 0, empty.Entries)

	for _, action := range []domain.AuditAction{domain.AuditViewed, domain.AuditSigned, domain.AuditCompleted} {
		_, err := svc.Record(ctx, domain.AuditLogEntry{DocumentID: doc.DocumentID, Action: action, Details: map[string]any{"k": "v"}})
		require.NoError(t, err)
	}
	result, err := svc.VerifyTrail(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 3, result.Entries)

	_, err = svc.VerifyTrail(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
