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
	"github.com/SscSPs/doc_signing_app/internal/metrics"
	"github.com/SscSPs/doc_signing_app/internal/utils/digest"
	"github.com/SscSPs/doc_signing_app/internal/utils/netutil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	completionPathSign    = "sign"
	completionPathRecheck = "recheck"

	defaultPublishTimeout = 2 * time.Second
)

// RetryPolicy bounds retries of storage operations that run after a
// signature has been captured. Backoff grows linearly per attempt.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is used when the configuration leaves retries unset.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

// SigningService is the completion coordinator. It captures one signature
// per request and moves a document to signed at most once, no matter how
// many signers finish concurrently.
type SigningService struct {
	BaseService
	documents  portsrepo.DocumentStore
	signatures portsrepo.SignatureLedger
	audit      portssvc.AuditSvc
	renderer   portssvc.ContentRenderer
	publisher  portssvc.CompletionPublisher
	retry      RetryPolicy

	publishTimeout time.Duration
}

// NewSigningService creates a new SigningService.
func NewSigningService(
	documents portsrepo.DocumentStore,
	signatures portsrepo.SignatureLedger,
	audit portssvc.AuditSvc,
	renderer portssvc.ContentRenderer,
	retry RetryPolicy,
	clock func() time.Time,
) *SigningService {
	if retry.Attempts <= 0 {
		retry.Attempts = DefaultRetryPolicy.Attempts
	}
	if retry.Backoff < 0 {
		retry.Backoff = 0
	}
	if renderer == nil {
		renderer = PassthroughRenderer{}
	}
	return &SigningService{
		BaseService: BaseService{Clock: clock},
		documents:   documents,
		signatures:  signatures,
		audit:       audit,
		renderer:    renderer,
		publisher:   NoopPublisher{},
		retry:       retry,

		publishTimeout: defaultPublishTimeout,
	}
}

// WithPublisher sets where completion events go. A nil publisher disables them.
func (s *SigningService) WithPublisher(publisher portssvc.CompletionPublisher) *SigningService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	s.publisher = publisher
	return s
}

var _ portssvc.SigningSvc = (*SigningService)(nil)

// SignDocument validates the attempt, captures the signature with a
// write-once conditional update, records it, then checks completion.
// Nothing is written when any check before the capture fails.
func (s *SigningService) SignDocument(ctx context.Context, cmd domain.SignCommand) (result *domain.SignResult, err error) {
	ctx, span := startSpan(ctx, "SigningService.SignDocument", cmd.DocumentID, attribute.String("signature.id", cmd.SignatureID))
	defer func() {
		metrics.IncSignAttempt(signOutcome(err))
		if result != nil {
			span.SetAttributes(
				attribute.Bool("document.completed", result.Completed),
				attribute.Bool("completion.pending", result.CompletionPending),
			)
		}
		endSpan(span, err)
	}()
	logger := s.GetLogger(ctx).With(
		slog.String("document_id", cmd.DocumentID),
		slog.String("signature_id", cmd.SignatureID),
	)

	doc, err := s.loadDocument(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	switch doc.EffectiveStatus(now) {
	case domain.DocumentSigned:
		return nil, fmt.Errorf("%w: document %s", apperrors.ErrAlreadyLocked, doc.DocumentID)
	case domain.DocumentExpired:
		s.recordExpired(ctx, *doc, cmd.Verification.IP(), now)
		return nil, fmt.Errorf("%w: document %s expired at %s", apperrors.ErrExpired, doc.DocumentID, doc.ExpiresAt.Format(time.RFC3339))
	case domain.DocumentDraft:
		return nil, apperrors.NewNotFoundError("document " + doc.DocumentID + " has not been sent for signing")
	}

	sig, err := s.signatures.FindSignatureByID(ctx, cmd.SignatureID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		logger.Error("Failed to load signature", slog.String("error", err.Error()))
		return nil, wrapStorage("load signature "+cmd.SignatureID, err)
	}
	if sig.DocumentID != doc.DocumentID {
		return nil, apperrors.NewNotFoundError("signature " + cmd.SignatureID + " does not belong to document " + doc.DocumentID)
	}
	if sig.IsSigned() {
		return nil, fmt.Errorf("%w: signature %s", apperrors.ErrAlreadySigned, sig.SignatureID)
	}

	if len(cmd.Artifact) == 0 {
		return nil, fmt.Errorf("%w: signature artifact is empty", apperrors.ErrValidation)
	}
	if !cmd.Consent {
		return nil, fmt.Errorf("%w: consent to sign electronically is required", apperrors.ErrValidation)
	}

	vctx := cmd.Verification
	if vctx.CapturedAt.IsZero() {
		vctx.CapturedAt = now
	}
	captured, err := s.signatures.CaptureSignature(ctx, sig.SignatureID, cmd.Artifact, cmd.ArtifactType, vctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadySigned) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Info("Signature capture lost to a concurrent request", slog.String("error", err.Error()))
			return nil, err
		}
		logger.Error("Failed to capture signature", slog.String("error", err.Error()))
		return nil, wrapStorage("capture signature "+sig.SignatureID, err)
	}
	logger.Info("Signature captured")

	s.recordSigned(ctx, *doc, *captured, cmd.Artifact)

	result = &domain.SignResult{Document: *doc, Signature: *captured}
	var completion *domain.CompletionResult
	err = s.withRetry(ctx, "completion check", func(ctx context.Context) error {
		c, err := s.evaluateCompletion(ctx, doc, captured.SignatureID, completionPathSign)
		completion = c
		return err
	})
	if err != nil {
		metrics.IncCompletionDeferred()
		logger.Error("Completion check deferred to recheck", slog.String("error", err.Error()))
		result.CompletionPending = true
		return result, nil
	}

	result.Completed = completion.Completed
	if completion.Completed {
		result.Document = s.lockedView(ctx, *doc, now)
	}
	return result, nil
}

// RecheckCompletion re-evaluates whether every required signature is
// captured and locks the document if so. Repeated calls have no further effect.
// Missing signed entries of captured signatures are appended first, then a
// locked document whose completed entry is missing gets it appended here.
func (s *SigningService) RecheckCompletion(ctx context.Context, documentID string) (_ *domain.CompletionResult, err error) {
	ctx, span := startSpan(ctx, "SigningService.RecheckCompletion", documentID)
	defer func() { endSpan(span, err) }()

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.recoverSignedEntries(ctx, *doc); err != nil {
		s.LogError(ctx, err, "Signed entry recovery failed", slog.String("document_id", documentID))
		return nil, err
	}

	if doc.IsLocked() {
		signedAt := s.Now()
		if doc.SignedAt != nil {
			signedAt = *doc.SignedAt
		}
		appended, err := s.recordCompleted(ctx, *doc, signedAt, completionPathRecheck, true)
		if err != nil {
			return nil, err
		}
		if appended {
			s.LogWarn(ctx, "Recovered missing completed audit entry", slog.String("document_id", documentID))
		}
		return &domain.CompletionResult{
			DocumentID: documentID,
			Status:     domain.DocumentSigned,
			Completed:  true,
		}, nil
	}

	result, err := s.evaluateCompletion(ctx, doc, "", completionPathRecheck)
	if err != nil {
		s.LogError(ctx, err, "Completion recheck failed", slog.String("document_id", documentID))
		return nil, err
	}
	return result, nil
}

// evaluateCompletion counts required unsigned signatures and, at zero,
// attempts the conditional lock. Only the caller that performed the lock
// appends the completed entry.
func (s *SigningService) evaluateCompletion(ctx context.Context, doc *domain.Document, excludingSignatureID, path string) (*domain.CompletionResult, error) {
	remaining, err := s.signatures.CountRemainingRequiredUnsigned(ctx, doc.DocumentID, excludingSignatureID)
	if err != nil {
		return nil, wrapStorage("count remaining signatures of document "+doc.DocumentID, err)
	}
	result := &domain.CompletionResult{
		DocumentID: doc.DocumentID,
		Status:     doc.Status,
		Remaining:  remaining,
	}
	if remaining > 0 {
		return result, nil
	}

	at := s.Now()
	transitioned, err := s.documents.TransitionToSigned(ctx, doc.DocumentID, at)
	if err != nil {
		return nil, wrapStorage("lock document "+doc.DocumentID, err)
	}
	result.Status = domain.DocumentSigned
	result.Completed = true
	result.Transitioned = transitioned
	if !transitioned {
		s.LogDebug(ctx, "Document already locked by a concurrent request", slog.String("document_id", doc.DocumentID))
		return result, nil
	}

	metrics.IncDocumentCompleted(path)
	s.LogInfo(ctx, "Document locked", slog.String("document_id", doc.DocumentID), slog.String("path", path))
	if _, err := s.recordCompleted(ctx, *doc, at, path, false); err != nil {
		s.LogError(ctx, err, "Completed audit entry missing; a recheck will append it", slog.String("document_id", doc.DocumentID))
	}
	s.publishCompleted(ctx, *doc, at, path)
	return result, nil
}

// publishCompleted hands the completion to downstream consumers. It runs on
// a context detached from the request and bounded by publishTimeout; a
// failure is logged and never reaches the signer.
func (s *SigningService) publishCompleted(ctx context.Context, doc domain.Document, signedAt time.Time, path string) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	event := domain.CompletionEvent{
		EventID:    uuid.NewString(),
		DocumentID: doc.DocumentID,
		ClientID:   doc.ClientID,
		Title:      doc.Title,
		SignedAt:   signedAt.UTC(),
		Path:       path,
	}
	if err := s.publisher.PublishCompleted(pubCtx, event); err != nil {
		metrics.IncCompletionPublishFailure()
		s.LogWarn(ctx, "Completion event not published", slog.String("document_id", doc.DocumentID), slog.String("error", err.Error()))
	}
}

func (s *SigningService) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.documents.FindDocumentByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to load document", slog.String("document_id", documentID))
		return nil, wrapStorage("load document "+documentID, err)
	}
	return doc, nil
}

// lockedView re-reads the document after completion, falling back to the
// loaded copy with the signed status applied.
func (s *SigningService) lockedView(ctx context.Context, doc domain.Document, now time.Time) domain.Document {
	fresh, err := s.documents.FindDocumentByID(ctx, doc.DocumentID)
	if err == nil {
		return *fresh
	}
	s.LogDebug(ctx, "Could not re-read locked document", slog.String("error", err.Error()))
	doc.Status = domain.DocumentSigned
	if doc.SignedAt == nil {
		doc.SignedAt = &now
	}
	return doc
}

func (s *SigningService) recordSigned(ctx context.Context, doc domain.Document, sig domain.Signature, artifact []byte) {
	entry := s.signedEntry(ctx, doc, sig, artifact)
	err := s.withRetry(ctx, "signed audit append", func(ctx context.Context) error {
		_, _, err := s.audit.RecordOnce(ctx, entry)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Signed audit entry could not be recorded; a recheck will append it",
			slog.String("document_id", doc.DocumentID),
			slog.String("signature_id", sig.SignatureID))
	}
}

// recoverSignedEntries appends a signed entry, marked recovered, for every
// captured signature whose own append never landed.
func (s *SigningService) recoverSignedEntries(ctx context.Context, doc domain.Document) error {
	sigs, err := s.signatures.ListSignaturesByDocument(ctx, doc.DocumentID)
	if err != nil {
		return wrapStorage("list signatures of document "+doc.DocumentID, err)
	}
	for _, sig := range sigs {
		if !sig.IsSigned() {
			continue
		}
		entry := s.signedEntry(ctx, doc, sig, sig.Artifact)
		entry.Details["recovered"] = "true"
		var appended bool
		err := s.withRetry(ctx, "recovered signed audit append", func(ctx context.Context) error {
			_, ok, err := s.audit.RecordOnce(ctx, entry)
			appended = appended || ok
			return err
		})
		if err != nil {
			return err
		}
		if appended {
			s.LogWarn(ctx, "Recovered missing signed audit entry",
				slog.String("document_id", doc.DocumentID),
				slog.String("signature_id", sig.SignatureID))
		}
	}
	return nil
}

func (s *SigningService) signedEntry(ctx context.Context, doc domain.Document, sig domain.Signature, artifact []byte) domain.AuditLogEntry {
	details := map[string]any{
		"signature_id": sig.SignatureID,
		"signer_name":  sig.SignerName,
		"signer_email": sig.SignerEmail,
		"role":         sig.Role,
	}
	if len(artifact) > 0 {
		details["artifact_sha256"] = digest.SHA256Hex(artifact)
	}
	if sig.ArtifactType != "" {
		details["artifact_type"] = sig.ArtifactType
	}
	if sections, err := s.renderer.Render(ctx, doc); err == nil {
		if h, err := digest.JSONSHA256(sections); err == nil {
			details["content_sha256"] = h
		}
	} else {
		s.LogWarn(ctx, "Could not render document for the signed entry", slog.String("error", err.Error()))
	}

	entry := domain.AuditLogEntry{
		EntryID:    uuid.NewString(),
		DocumentID: doc.DocumentID,
		Action:     domain.AuditSigned,
		Timestamp:  s.Now(),
		Details:    details,
	}
	if sig.Verification != nil {
		entry.IPAddress = sig.Verification.IP()
		if ua := sig.Verification.UserAgent; ua != "" {
			details["user_agent"] = ua
			if client := netutil.DescribeUserAgent(ua); client != "" {
				details["client"] = client
			}
		}
		if loc := sig.Verification.Location; loc != nil {
			details["location"] = formatLocation(*loc)
		}
	}
	return entry
}

func (s *SigningService) recordCompleted(ctx context.Context, doc domain.Document, signedAt time.Time, path string, recovered bool) (bool, error) {
	details := map[string]any{
		"message":   fmt.Sprintf("All required signatures captured; %q is locked", doc.Title),
		"path":      path,
		"signed_at": signedAt.UTC().Format(time.RFC3339Nano),
	}
	if recovered {
		details["recovered"] = "true"
	}
	entry := domain.AuditLogEntry{
		EntryID:    uuid.NewString(),
		DocumentID: doc.DocumentID,
		Action:     domain.AuditCompleted,
		Timestamp:  s.Now(),
		Details:    details,
	}
	var appended bool
	err := s.withRetry(ctx, "completed audit append", func(ctx context.Context) error {
		_, ok, err := s.audit.RecordOnce(ctx, entry)
		appended = appended || ok
		return err
	})
	return appended, err
}

func (s *SigningService) recordExpired(ctx context.Context, doc domain.Document, ip string, now time.Time) {
	recordExpiry(ctx, s.audit, &s.BaseService, doc, ip, now, "Signing attempted after the document expired")
}

// recordExpiry appends the document's expired entry the first time expiry
// is observed. Failures are logged only.
func recordExpiry(ctx context.Context, audit portssvc.AuditSvc, base *BaseService, doc domain.Document, ip string, now time.Time, message string) {
	details := map[string]any{"message": message}
	if doc.ExpiresAt != nil {
		details["expires_at"] = doc.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	_, _, err := audit.RecordOnce(ctx, domain.AuditLogEntry{
		DocumentID: doc.DocumentID,
		Action:     domain.AuditExpired,
		Timestamp:  now,
		IPAddress:  ip,
		Details:    details,
	})
	if err != nil {
		base.LogWarn(ctx, "Expired audit entry not recorded", slog.String("document_id", doc.DocumentID), slog.String("error", err.Error()))
	}
}

// withRetry re-runs fn while it fails with a storage error, up to the
// policy's attempt count. Domain outcomes are returned immediately.
func (s *SigningService) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, apperrors.ErrStorage) || attempt == s.retry.Attempts {
			return err
		}
		s.LogWarn(ctx, "Retrying after storage failure",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * s.retry.Backoff):
		}
	}
	return err
}

func formatLocation(loc domain.GeoLocation) string {
	out := loc.City
	for _, part := range []string{loc.Country, loc.Timezone} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

func signOutcome(err error) string {
	switch {
	case err == nil:
		return "captured"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrExpired):
		return "expired"
	case errors.Is(err, apperrors.ErrAlreadyLocked):
		return "locked"
	case errors.Is(err, apperrors.ErrAlreadySigned):
		return "already_signed"
	case errors.Is(err, apperrors.ErrValidation):
		return "invalid"
	case errors.Is(err, apperrors.ErrStorage):
		return "storage_error"
	}
	return "error"
}
