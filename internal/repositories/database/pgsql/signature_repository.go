package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/SscSPs/doc_signing_app/internal/models"
	"github.com/SscSPs/doc_signing_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const signatureColumns = `
	signature_id, document_id, signer_name, signer_email, role, is_required, sort_order,
	signed_at, artifact, artifact_type, ip_address, location, user_agent,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxSignatureRepository struct {
	BaseRepository
}

// newPgxSignatureRepository creates a new repository for signature records.
func newPgxSignatureRepository(pool *pgxpool.Pool) portsrepo.SignatureLedger {
	return &PgxSignatureRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxSignatureRepository implements portsrepo.SignatureLedger
var _ portsrepo.SignatureLedger = (*PgxSignatureRepository)(nil)

func scanSignature(row pgx.Row) (models.Signature, error) {
	var m models.Signature
	err := row.Scan(
		&m.SignatureID,
		&m.DocumentID,
		&m.SignerName,
		&m.SignerEmail,
		&m.Role,
		&m.IsRequired,
		&m.SortOrder,
		&m.SignedAt,
		&m.Artifact,
		&m.ArtifactType,
		&m.IPAddress,
		&m.Location,
		&m.UserAgent,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// FindSignatureByID retrieves a signature record by its ID.
func (r *PgxSignatureRepository) FindSignatureByID(ctx context.Context, signatureID string) (*domain.Signature, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE signature_id = $1;`
	m, err := scanSignature(r.Pool.QueryRow(ctx, query, signatureID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("signature " + signatureID + " not found")
		}
		return nil, apperrors.NewStorageError("failed to find signature by ID "+signatureID, err)
	}
	sig, err := mapping.ToDomainSignature(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map signature "+signatureID, err)
	}
	return &sig, nil
}

// ListSignaturesByDocument retrieves a document's signer set ordered by sort order.
func (r *PgxSignatureRepository) ListSignaturesByDocument(ctx context.Context, documentID string) ([]domain.Signature, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE document_id = $1 ORDER BY sort_order, signature_id;`
	rows, err := r.Pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query signatures for document "+documentID, err)
	}
	defer rows.Close()

	signatures := []models.Signature{}
	for rows.Next() {
		m, err := scanSignature(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to scan signature row for document "+documentID, err)
		}
		signatures = append(signatures, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("error iterating signature rows for document "+documentID, err)
	}

	out, err := mapping.ToDomainSignatureSlice(signatures)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map signatures for document "+documentID, err)
	}
	return out, nil
}

// CountRemainingRequiredUnsigned counts required signatures still missing a signed-at.
func (r *PgxSignatureRepository) CountRemainingRequiredUnsigned(ctx context.Context, documentID, excludingSignatureID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM signatures
		WHERE document_id = $1 AND is_required AND signed_at IS NULL AND signature_id <> $2;
	`
	var count int
	if err := r.Pool.QueryRow(ctx, query, documentID, excludingSignatureID).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError("failed to count unsigned signatures for document "+documentID, err)
	}
	return count, nil
}

// CaptureSignature writes the capture fields only while signed_at IS NULL.
// The guarded UPDATE is the single-record compare-and-swap.
func (r *PgxSignatureRepository) CaptureSignature(ctx context.Context, signatureID string, artifact []byte, artifactType string, vctx domain.VerificationContext) (*domain.Signature, error) {
	location, err := mapping.EncodeLocation(vctx.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	var userAgent *string
	if vctx.UserAgent != "" {
		userAgent = &vctx.UserAgent
	}

	query := `
		UPDATE signatures
		SET signed_at = $2,
		    artifact = $3,
		    artifact_type = $4,
		    ip_address = $5,
		    location = $6,
		    user_agent = $7,
		    last_updated_at = $2,
		    last_updated_by = $1
		WHERE signature_id = $1 AND signed_at IS NULL
		RETURNING ` + signatureColumns + `;`

	m, err := scanSignature(r.Pool.QueryRow(ctx, query,
		signatureID,
		vctx.CapturedAt,
		artifact,
		artifactType,
		vctx.IPAddress,
		location,
		userAgent,
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewStorageError("failed to capture signature "+signatureID, err)
		}
		// No row matched: either it does not exist or another request captured it first.
		if _, findErr := r.FindSignatureByID(ctx, signatureID); findErr != nil {
			return nil, findErr
		}
		return nil, fmt.Errorf("%w: signature %s", apperrors.ErrAlreadySigned, signatureID)
	}

	sig, err := mapping.ToDomainSignature(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map signature "+signatureID, err)
	}
	return &sig, nil
}
