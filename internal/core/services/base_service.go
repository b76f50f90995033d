package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is a no-op until the binary installs a global TracerProvider.
var tracer = otel.Tracer("github.com/SscSPs/doc_signing_app/internal/core/services")

// BaseService provides common functionality for all services
type BaseService struct {
	// Clock is the time source. Nil means time.Now.
	Clock func() time.Time
}

// Now returns the current time in UTC from the configured clock.
func (s *BaseService) Now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// wrapStorage classifies err as a storage failure unless it already carries
// a domain outcome (not found, already signed, ...).
func wrapStorage(op string, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrStorage):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrAlreadySigned),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrDuplicate):
		return err
	}
	return fmt.Errorf("%w: %s: %w", apperrors.ErrStorage, op, err)
}

// startSpan starts a span for op tagged with the document it works on.
func startSpan(ctx context.Context, op, documentID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("document.id", documentID))
	return tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
