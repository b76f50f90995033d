package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/SscSPs/doc_signing_app/internal/platform/config"
	"github.com/SscSPs/doc_signing_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// documentHandler serves the operator routes for dispatching and inspecting documents.
type documentHandler struct {
	documentService portssvc.DocumentSvc
	signingService  portssvc.SigningSvc
	cfg             *config.Config
	now             func() time.Time
}

func newDocumentHandler(services *portssvc.ServiceContainer, cfg *config.Config) *documentHandler {
	return &documentHandler{
		documentService: services.Document,
		signingService:  services.Signing,
		cfg:             cfg,
		now:             clockOf(services),
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, cfg *config.Config) {
	h := newDocumentHandler(services, cfg)

	documents := rg.Group("/documents")
	{
		documents.POST("", h.dispatchDocument)
		documents.GET("/:documentID", h.getDocument)
		documents.POST("/:documentID/recheck-completion", h.recheckCompletion)
	}
}

// dispatchDocument godoc
// @Summary Dispatch a document for signatures
// @Description Creates a rendered document with its signer set, marks it sent and returns one signing link token per signer.
// @Tags documents
// @Accept json
// @Produce json
// @Param document body dto.DispatchDocumentRequest true "Document and signers"
// @Success 201 {object} dto.DispatchDocumentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security BearerAuth
// @Router /documents [post]
func (h *documentHandler) dispatchDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	operatorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Operator ID not found in context for DispatchDocument")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.DispatchDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DispatchDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	document, signatures, err := h.documentService.DispatchDocument(c.Request.Context(), req, operatorID)
	if err != nil {
		respondError(c, logger, err, "Failed to dispatch document")
		return
	}

	links := make([]dto.SigningLinkResponse, 0, len(signatures))
	for _, sig := range signatures {
		token, err := utils.GenerateSigningToken(
			domain.SignerIdentity{DocumentID: document.DocumentID, SignatureID: sig.SignatureID},
			h.cfg.SigningTokenSecret,
			h.cfg.SigningTokenExpiryDuration,
			h.cfg.JWTIssuer,
			document.ExpiresAt,
		)
		if err != nil {
			logger.Error("Failed to issue signing token", slog.String("signature_id", sig.SignatureID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue signing links"})
			return
		}
		links = append(links, dto.SigningLinkResponse{SignatureID: sig.SignatureID, SignerEmail: sig.SignerEmail, Token: token})
	}

	logger.Info("Document dispatched", slog.String("document_id", document.DocumentID), slog.Int("signers", len(signatures)))
	c.JSON(http.StatusCreated, dto.DispatchDocumentResponse{
		Document:   dto.ToDocumentResponse(document, h.now()),
		Signatures: dto.ToSignatureResponses(signatures),
		Links:      links,
	})
}

// getDocument godoc
// @Summary Get a document
// @Description Returns a document with its effective status and signer set.
// @Tags documents
// @Produce json
// @Param documentID path string true "Document ID"
// @Success 200 {object} dto.DocumentWithSignaturesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Security BearerAuth
// @Router /documents/{documentID} [get]
func (h *documentHandler) getDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	document, signatures, err := h.documentService.GetDocumentWithSignatures(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to get document")
		return
	}
	c.JSON(http.StatusOK, dto.DocumentWithSignaturesResponse{
		Document:   dto.ToDocumentResponse(document, h.now()),
		Signatures: dto.ToSignatureResponses(signatures),
	})
}

// recheckCompletion godoc
// @Summary Re-run the completion check
// @Description Locks the document when every required signature is captured. Safe to call repeatedly.
// @Tags documents
// @Produce json
// @Param documentID path string true "Document ID"
// @Success 200 {object} dto.CompletionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Security BearerAuth
// @Router /documents/{documentID}/recheck-completion [post]
func (h *documentHandler) recheckCompletion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	result, err := h.signingService.RecheckCompletion(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to recheck completion")
		return
	}
	c.JSON(http.StatusOK, dto.ToCompletionResponse(result))
}
