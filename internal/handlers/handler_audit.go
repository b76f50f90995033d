package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type auditHandler struct {
	auditService portssvc.AuditSvc
}

func newAuditHandler(audit portssvc.AuditSvc) *auditHandler {
	return &auditHandler{auditService: audit}
}

func registerAuditRoutes(rg *gin.RouterGroup, audit portssvc.AuditSvc) {
	h := newAuditHandler(audit)

	trail := rg.Group("/documents/:documentID/audit")
	{
		trail.GET("", h.listAuditTrail)
		trail.GET("/verify", h.verifyAuditTrail)
	}
}

// listAuditTrail godoc
// @Summary List a document's audit trail
// @Description Returns audit entries in sequence order, paginated with nextToken.
// @Tags audit
// @Produce json
// @Param documentID path string true "Document ID"
// @Param limit query int false "Page size (max 200)"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListAuditEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Security BearerAuth
// @Router /documents/{documentID}/audit [get]
func (h *auditHandler) listAuditTrail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	var params dto.ListAuditEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListAuditTrail", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.auditService.ListTrail(c.Request.Context(), documentID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list audit trail")
		return
	}
	c.JSON(http.StatusOK, page)
}

// verifyAuditTrail godoc
// @Summary Verify a document's audit trail
// @Description Recomputes the hash chain and reports the first broken sequence, if any.
// @Tags audit
// @Produce json
// @Param documentID path string true "Document ID"
// @Success 200 {object} domain.TrailVerification
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Document not found"
// @Security BearerAuth
// @Router /documents/{documentID}/audit/verify [get]
func (h *auditHandler) verifyAuditTrail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	result, err := h.auditService.VerifyTrail(c.Request.Context(), documentID)
	if err != nil {
		respondError(c, logger, err, "Failed to verify audit trail")
		return
	}
	if !result.Valid {
		logger.Warn("Audit trail failed verification", slog.String("document_id", documentID), slog.String("reason", result.Reason))
	}
	c.JSON(http.StatusOK, result)
}
