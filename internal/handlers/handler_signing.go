package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/SscSPs/doc_signing_app/internal/utils/geo"
	"github.com/gin-gonic/gin"
)

// signingHandler serves the signer-facing routes reached through a signing link.
type signingHandler struct {
	signingService portssvc.SigningSvc
	accessService  portssvc.AccessSvc
	collector      portssvc.VerificationCollector
	now            func() time.Time
}

func newSigningHandler(services *portssvc.ServiceContainer) *signingHandler {
	return &signingHandler{
		signingService: services.Signing,
		accessService:  services.Access,
		collector:      services.Collector,
		now:            clockOf(services),
	}
}

// registerSigningRoutes registers the signer routes. signLimit guards the
// signing submission only.
func registerSigningRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, signingSecret string, signLimit gin.HandlerFunc) {
	h := newSigningHandler(services)

	sign := rg.Group("/sign/documents/:documentID/signatures/:signatureID", middleware.SignerTokenMiddleware(signingSecret))
	{
		sign.GET("", h.viewForSigning)
		if signLimit != nil {
			sign.POST("", signLimit, h.signDocument)
		} else {
			sign.POST("", h.signDocument)
		}
	}
}

// clockOf returns the services' clock so rendered statuses agree with the
// ones the services evaluated.
func clockOf(services *portssvc.ServiceContainer) func() time.Time {
	if services.Clock != nil {
		return services.Clock
	}
	return func() time.Time { return time.Now().UTC() }
}

func requestEvidence(c *gin.Context) domain.RequestEvidence {
	headers := make(map[string]string, len(geo.Headers))
	for _, name := range geo.Headers {
		if v := c.GetHeader(name); v != "" {
			headers[name] = v
		}
	}
	return domain.RequestEvidence{
		RemoteAddr: c.Request.RemoteAddr,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Headers:    headers,
	}
}

// viewForSigning godoc
// @Summary Open a signing link
// @Description Returns the document, the signer's own signature and the view state (ready, already_signed or locked).
// @Tags signing
// @Produce json
// @Param documentID path string true "Document ID"
// @Param signatureID path string true "Signature ID"
// @Success 200 {object} dto.ViewForSigningResponse
// @Failure 401 {object} map[string]string "Missing or invalid signing token"
// @Failure 403 {object} map[string]string "Token does not match the route"
// @Failure 404 {object} map[string]string "Document or signature not found"
// @Failure 410 {object} map[string]string "Document expired"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security SigningToken
// @Router /sign/documents/{documentID}/signatures/{signatureID} [get]
func (h *signingHandler) viewForSigning(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	signer, ok := middleware.GetSignerFromContext(c)
	if !ok {
		logger.Error("Signer identity not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	view, err := h.accessService.ViewForSigning(c.Request.Context(), signer, requestEvidence(c))
	if err != nil {
		respondError(c, logger, err, "Failed to open signing link")
		return
	}

	c.JSON(http.StatusOK, dto.ViewForSigningResponse{
		State:      view.State,
		Document:   dto.ToDocumentResponse(&view.Document, h.now()),
		Signature:  dto.ToSignatureResponse(&view.Signature),
		Signatures: dto.ToCoSignerResponses(view.Signatures),
	})
}

// signDocument godoc
// @Summary Sign a document
// @Description Captures the signer's signature. The document locks once every required signature is captured.
// @Tags signing
// @Accept json
// @Produce json
// @Param documentID path string true "Document ID"
// @Param signatureID path string true "Signature ID"
// @Param signature body dto.SignDocumentRequest true "Signature artifact and consent"
// @Success 200 {object} dto.SignDocumentResponse
// @Failure 400 {object} map[string]string "Empty artifact or missing consent"
// @Failure 401 {object} map[string]string "Missing or invalid signing token"
// @Failure 404 {object} map[string]string "Document or signature not found"
// @Failure 409 {object} map[string]string "Signature already captured"
// @Failure 410 {object} map[string]string "Document expired"
// @Failure 423 {object} map[string]string "Document already locked"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security SigningToken
// @Router /sign/documents/{documentID}/signatures/{signatureID} [post]
func (h *signingHandler) signDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	signer, ok := middleware.GetSignerFromContext(c)
	if !ok {
		logger.Error("Signer identity not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SignDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SignDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	artifact, err := base64.StdEncoding.DecodeString(req.Artifact)
	if err != nil {
		logger.Warn("Signature artifact is not valid base64", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact must be base64 encoded"})
		return
	}

	result, err := h.signingService.SignDocument(c.Request.Context(), domain.SignCommand{
		DocumentID:   signer.DocumentID,
		SignatureID:  signer.SignatureID,
		Artifact:     artifact,
		ArtifactType: req.ArtifactType,
		Consent:      req.Consent,
		Verification: h.collector.Collect(c.Request.Context(), requestEvidence(c)),
	})
	if err != nil {
		respondError(c, logger, err, "Failed to sign document")
		return
	}

	logger.Info("Document signed",
		slog.Bool("completed", result.Completed),
		slog.Bool("completion_pending", result.CompletionPending))
	c.JSON(http.StatusOK, dto.SignDocumentResponse{
		Document:          dto.ToDocumentResponse(&result.Document, h.now()),
		Signature:         dto.ToSignatureResponse(&result.Signature),
		Completed:         result.Completed,
		CompletionPending: result.CompletionPending,
	})
}
