package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrExpired):
		return http.StatusGone
	case errors.Is(err, apperrors.ErrAlreadySigned), errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrAlreadyLocked):
		return http.StatusLocked
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes the mapped status. Client errors carry the error
// text; server errors only carry fallback so internals are not leaked.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()), slog.Int("status", status))
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}
