package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/SscSPs/doc_signing_app/internal/models"
	"github.com/SscSPs/doc_signing_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const systemActor = "system"

type PgxDocumentRepository struct {
	BaseRepository
}

// newPgxDocumentRepository creates a new repository for document data.
func newPgxDocumentRepository(pool *pgxpool.Pool) portsrepo.DocumentStore {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxDocumentRepository implements portsrepo.DocumentStore
var _ portsrepo.DocumentStore = (*PgxDocumentRepository)(nil)

// SaveDocument inserts a document and its signer set within a DB transaction.
func (r *PgxDocumentRepository) SaveDocument(ctx context.Context, document domain.Document, signatures []domain.Signature) error {
	modelDoc, err := mapping.ToModelDocument(document)
	if err != nil {
		return fmt.Errorf("%w: invalid document %s: %v", apperrors.ErrValidation, document.DocumentID, err)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Will be ignored if transaction is committed successfully
	defer r.Rollback(ctx, tx)

	docQuery := `
		INSERT INTO documents (
			document_id, client_id, title, status, expires_at, signed_at, sections,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, docQuery,
		modelDoc.DocumentID,
		modelDoc.ClientID,
		modelDoc.Title,
		modelDoc.Status,
		modelDoc.ExpiresAt,
		modelDoc.SignedAt,
		modelDoc.Sections,
		modelDoc.CreatedAt,
		modelDoc.CreatedBy,
		modelDoc.LastUpdatedAt,
		modelDoc.LastUpdatedBy,
	)
	if err != nil {
		return translateInsertError(err, "failed to insert document "+modelDoc.DocumentID)
	}

	batch := &pgx.Batch{}
	sigQuery := `
		INSERT INTO signatures (
			signature_id, document_id, signer_name, signer_email, role, is_required, sort_order,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, sig := range signatures {
		batch.Queue(sigQuery,
			sig.SignatureID,
			document.DocumentID,
			sig.SignerName,
			sig.SignerEmail,
			sig.Role,
			sig.IsRequired,
			sig.SortOrder,
			sig.CreatedAt,
			sig.CreatedBy,
			sig.LastUpdatedAt,
			sig.LastUpdatedBy,
		)
	}

	// Close the batch results to surface errors from each command
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return translateInsertError(err, "failed to insert signatures for document "+modelDoc.DocumentID)
	}

	return r.Commit(ctx, tx)
}

// FindDocumentByID retrieves a document by its ID.
func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	query := `
		SELECT document_id, client_id, title, status, expires_at, signed_at, sections,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM documents
		WHERE document_id = $1;
	`
	var m models.Document
	err := r.Pool.QueryRow(ctx, query, documentID).Scan(
		&m.DocumentID,
		&m.ClientID,
		&m.Title,
		&m.Status,
		&m.ExpiresAt,
		&m.SignedAt,
		&m.Sections,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("document " + documentID + " not found")
		}
		return nil, apperrors.NewStorageError("failed to find document by ID "+documentID, err)
	}

	doc, err := mapping.ToDomainDocument(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map document "+documentID, err)
	}
	return &doc, nil
}

// MarkSent moves a draft document to sent; other statuses are left untouched.
func (r *PgxDocumentRepository) MarkSent(ctx context.Context, documentID string, at time.Time) (bool, error) {
	query := `
		UPDATE documents
		SET status = 'sent', last_updated_at = $2, last_updated_by = $3
		WHERE document_id = $1 AND status = 'draft';
	`
	return r.conditionalUpdate(ctx, documentID, query, at)
}

// TransitionToSigned flips the status to signed unless it already is.
func (r *PgxDocumentRepository) TransitionToSigned(ctx context.Context, documentID string, at time.Time) (bool, error) {
	query := `
		UPDATE documents
		SET status = 'signed', signed_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE document_id = $1 AND status <> 'signed';
	`
	return r.conditionalUpdate(ctx, documentID, query, at)
}

// conditionalUpdate runs a single-row guarded UPDATE. Zero affected rows is
// either "precondition no longer holds" or "no such document".
func (r *PgxDocumentRepository) conditionalUpdate(ctx context.Context, documentID, query string, at time.Time) (bool, error) {
	cmdTag, err := r.Pool.Exec(ctx, query, documentID, at, systemActor)
	if err != nil {
		return false, apperrors.NewStorageError("failed to update status of document "+documentID, err)
	}
	if cmdTag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	err = r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE document_id = $1);`, documentID).Scan(&exists)
	if err != nil {
		return false, apperrors.NewStorageError("failed to check document "+documentID, err)
	}
	if !exists {
		return false, apperrors.NewNotFoundError("document " + documentID + " not found for update")
	}
	return false, nil
}

// translateInsertError maps unique violations to ErrDuplicate.
func translateInsertError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperrors.NewAppError(409, msg, apperrors.ErrDuplicate)
	}
	return apperrors.NewStorageError(msg, err)
}
