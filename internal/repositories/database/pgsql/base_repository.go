package pgsql

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository holds the pool and the transaction helpers shared by the
// document, signature and audit repositories.
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStorageError("failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back tx. It is meant to be deferred, so a failure is
// logged instead of returned; a committed tx is not an error.
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to roll back transaction", slog.String("error", err.Error()))
	}
}

// lockDocument takes a transaction-scoped advisory lock keyed by documentID.
// Writers that must observe and extend per-document state (the audit chain
// head) serialise on it; the lock is released on commit or rollback.
func (r *BaseRepository) lockDocument(ctx context.Context, tx pgx.Tx, documentID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`, documentID); err != nil {
		return apperrors.NewStorageError("failed to lock document "+documentID, err)
	}
	return nil
}
