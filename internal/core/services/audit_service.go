package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/SscSPs/doc_signing_app/internal/metrics"
	"github.com/SscSPs/doc_signing_app/internal/utils/auditchain"
	"github.com/google/uuid"
)

const defaultAuditPageSize = 50

// AuditService appends to and reads document audit trails.
type AuditService struct {
	BaseService
	auditRepo    portsrepo.AuditLog
	documentRepo portsrepo.DocumentReader
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo portsrepo.AuditLog, documentRepo portsrepo.DocumentReader, clock func() time.Time) *AuditService {
	return &AuditService{
		BaseService:  BaseService{Clock: clock},
		auditRepo:    auditRepo,
		documentRepo: documentRepo,
	}
}

var _ portssvc.AuditSvc = (*AuditService)(nil)

func (s *AuditService) prepare(entry domain.AuditLogEntry) domain.AuditLogEntry {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.Now()
	}
	return entry
}

// Record appends an entry. A duplicate entry id means an earlier attempt of
// the same append already landed, which is reported as success.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, error) {
	entry = s.prepare(entry)
	stored, err := s.auditRepo.AppendEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogDebug(ctx, "Audit entry already recorded", slog.String("entry_id", entry.EntryID))
			return &entry, nil
		}
		metrics.IncAuditAppendFailure(string(entry.Action))
		s.LogError(ctx, err, "Failed to append audit entry",
			slog.String("document_id", entry.DocumentID),
			slog.String("action", string(entry.Action)))
		return nil, fmt.Errorf("%w: append %s entry for document %s: %w", apperrors.ErrStorage, entry.Action, entry.DocumentID, err)
	}
	return stored, nil
}

// RecordOnce appends the entry unless one with the same action and
// signature id exists.
func (s *AuditService) RecordOnce(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, bool, error) {
	entry = s.prepare(entry)
	stored, appended, err := s.auditRepo.AppendEntryOnce(ctx, entry)
	if err != nil {
		metrics.IncAuditAppendFailure(string(entry.Action))
		s.LogError(ctx, err, "Failed to append audit entry",
			slog.String("document_id", entry.DocumentID),
			slog.String("action", string(entry.Action)))
		return nil, false, fmt.Errorf("%w: append %s entry for document %s: %w", apperrors.ErrStorage, entry.Action, entry.DocumentID, err)
	}
	return stored, appended, nil
}

// RecordBestEffort appends an entry; failures are logged by Record and dropped.
func (s *AuditService) RecordBestEffort(ctx context.Context, entry domain.AuditLogEntry) {
	_, _ = s.Record(ctx, entry)
}

// ListTrail returns one page of a document's trail in sequence order.
func (s *AuditService) ListTrail(ctx context.Context, documentID string, params dto.ListAuditEntriesParams) (*dto.ListAuditEntriesResponse, error) {
	if _, err := s.documentRepo.FindDocumentByID(ctx, documentID); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	entries, next, err := s.auditRepo.ListEntriesByDocument(ctx, documentID, limit, params.NextToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list audit trail", slog.String("document_id", documentID))
		}
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	return &dto.ListAuditEntriesResponse{Entries: entries, NextToken: next}, nil
}

// VerifyTrail recomputes the hash chain of a document's whole trail.
func (s *AuditService) VerifyTrail(ctx context.Context, documentID string) (*domain.TrailVerification, error) {
	if _, err := s.documentRepo.FindDocumentByID(ctx, documentID); err != nil {
		return nil, err
	}
	entries, err := s.auditRepo.ListAllEntriesByDocument(ctx, documentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load audit trail for verification", slog.String("document_id", documentID))
		return nil, err
	}
	result := auditchain.Verify(documentID, entries)
	if !result.Valid {
		s.LogWarn(ctx, "Audit trail failed verification",
			slog.String("document_id", documentID),
			slog.String("reason", result.Reason))
	}
	return &result, nil
}
