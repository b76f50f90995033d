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
	"github.com/SscSPs/doc_signing_app/internal/utils/netutil"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const defaultViewAuditTimeout = 2 * time.Second

// AccessService decides what a signer sees when opening a signing link.
// It only reads state, apart from best-effort audit entries.
type AccessService struct {
	BaseService
	documents    portsrepo.DocumentReader
	signatures   portsrepo.SignatureReader
	audit        portssvc.AuditSvc
	renderer     portssvc.ContentRenderer
	collector    portssvc.VerificationCollector
	auditTimeout time.Duration
}

// NewAccessService creates a new AccessService.
func NewAccessService(
	documents portsrepo.DocumentReader,
	signatures portsrepo.SignatureReader,
	audit portssvc.AuditSvc,
	renderer portssvc.ContentRenderer,
	collector portssvc.VerificationCollector,
	clock func() time.Time,
) *AccessService {
	if renderer == nil {
		renderer = PassthroughRenderer{}
	}
	return &AccessService{
		BaseService:  BaseService{Clock: clock},
		documents:    documents,
		signatures:   signatures,
		audit:        audit,
		renderer:     renderer,
		collector:    collector,
		auditTimeout: defaultViewAuditTimeout,
	}
}

var _ portssvc.AccessSvc = (*AccessService)(nil)

// ViewForSigning resolves the signer's view state. The document and its
// signer set are loaded concurrently.
func (s *AccessService) ViewForSigning(ctx context.Context, signer domain.SignerIdentity, evidence domain.RequestEvidence) (_ *domain.ViewResult, err error) {
	ctx, span := startSpan(ctx, "AccessService.ViewForSigning", signer.DocumentID, attribute.String("signature.id", signer.SignatureID))
	defer func() { endSpan(span, err) }()

	var (
		doc  *domain.Document
		sigs []domain.Signature
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.documents.FindDocumentByID(gctx, signer.DocumentID)
		doc = d
		return err
	})
	g.Go(func() error {
		list, err := s.signatures.ListSignaturesByDocument(gctx, signer.DocumentID)
		sigs = list
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to load document for signing view", slog.String("document_id", signer.DocumentID))
		return nil, wrapStorage("load signing view of document "+signer.DocumentID, err)
	}

	var own *domain.Signature
	for i := range sigs {
		if sigs[i].SignatureID == signer.SignatureID {
			own = &sigs[i]
			break
		}
	}
	if own == nil {
		return nil, apperrors.NewNotFoundError("signature " + signer.SignatureID + " does not belong to document " + signer.DocumentID)
	}
	if doc.Status == domain.DocumentDraft {
		return nil, apperrors.NewNotFoundError("document " + doc.DocumentID + " has not been sent for signing")
	}

	now := s.Now()
	vctx := s.collector.Collect(ctx, evidence)

	var state domain.ViewState
	switch doc.EffectiveStatus(now) {
	case domain.DocumentExpired:
		recordExpiry(ctx, s.audit, &s.BaseService, *doc, vctx.IP(), now, "Signing link opened after the document expired")
		return nil, fmt.Errorf("%w: document %s expired at %s", apperrors.ErrExpired, doc.DocumentID, doc.ExpiresAt.Format(time.RFC3339))
	case domain.DocumentSigned:
		state = domain.ViewLocked
	default:
		state = domain.ViewReady
		if own.IsSigned() {
			state = domain.ViewAlreadySigned
		}
	}

	span.SetAttributes(attribute.String("view.state", string(state)))

	sections, err := s.renderer.Render(ctx, *doc)
	if err != nil {
		s.LogWarn(ctx, "Rendering failed; showing stored sections", slog.String("document_id", doc.DocumentID), slog.String("error", err.Error()))
	} else {
		doc.Sections = sections
	}

	s.recordViewed(ctx, *doc, *own, state, vctx)

	return &domain.ViewResult{
		State:      state,
		Document:   *doc,
		Signature:  *own,
		Signatures: sigs,
	}, nil
}

// recordViewed appends a viewed entry on a context detached from the
// request and bounded by auditTimeout. Failures never reach the signer.
func (s *AccessService) recordViewed(ctx context.Context, doc domain.Document, sig domain.Signature, state domain.ViewState, vctx domain.VerificationContext) {
	details := map[string]any{
		"signature_id": sig.SignatureID,
		"signer_name":  sig.SignerName,
		"state":        string(state),
	}
	if vctx.UserAgent != "" {
		details["user_agent"] = vctx.UserAgent
		if client := netutil.DescribeUserAgent(vctx.UserAgent); client != "" {
			details["client"] = client
		}
	}
	if vctx.Location != nil {
		details["location"] = formatLocation(*vctx.Location)
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()
	s.audit.RecordBestEffort(auditCtx, domain.AuditLogEntry{
		DocumentID: doc.DocumentID,
		Action:     domain.AuditViewed,
		Timestamp:  vctx.CapturedAt,
		IPAddress:  vctx.IP(),
		Details:    details,
	})
}
