package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/SscSPs/doc_signing_app/internal/models"
	"github.com/SscSPs/doc_signing_app/internal/utils/auditchain"
	"github.com/SscSPs/doc_signing_app/internal/utils/mapping"
	"github.com/SscSPs/doc_signing_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditColumns = `entry_id, document_id, sequence, action, timestamp, ip_address, details, prev_hash, hash`

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for the audit trail.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditLog {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAuditRepository implements portsrepo.AuditLog
var _ portsrepo.AuditLog = (*PgxAuditRepository)(nil)

func scanAuditLog(row pgx.Row) (models.AuditLog, error) {
	var m models.AuditLog
	err := row.Scan(
		&m.EntryID,
		&m.DocumentID,
		&m.Sequence,
		&m.Action,
		&m.Timestamp,
		&m.IPAddress,
		&m.Details,
		&m.PrevHash,
		&m.Hash,
	)
	return m, err
}

// AppendEntry seals and inserts an entry. Appends to the same document are
// serialised with a transaction-scoped advisory lock so the hash chain never forks.
func (r *PgxAuditRepository) AppendEntry(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, error) {
	sealed, _, err := r.appendLocked(ctx, entry, false)
	return sealed, err
}

// AppendEntryOnce appends only when the trail has no entry with the same
// action and signature id. The existence check runs under the same advisory
// lock as the insert.
func (r *PgxAuditRepository) AppendEntryOnce(ctx context.Context, entry domain.AuditLogEntry) (*domain.AuditLogEntry, bool, error) {
	return r.appendLocked(ctx, entry, true)
}

func (r *PgxAuditRepository) appendLocked(ctx context.Context, entry domain.AuditLogEntry, oncePerAction bool) (*domain.AuditLogEntry, bool, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx)

	if err := r.lockDocument(ctx, tx, entry.DocumentID); err != nil {
		return nil, false, err
	}

	if oncePerAction {
		existingQuery := `
			SELECT ` + auditColumns + ` FROM audit_logs
			WHERE document_id = $1 AND action = $2 AND COALESCE(details->>'signature_id', '') = $3
			ORDER BY sequence LIMIT 1;`
		m, err := scanAuditLog(tx.QueryRow(ctx, existingQuery, entry.DocumentID, string(entry.Action), entry.SignatureID()))
		switch {
		case err == nil:
			existing, mapErr := mapping.ToDomainAuditLog(m)
			if mapErr != nil {
				return nil, false, apperrors.NewAppError(500, "failed to map audit entry "+m.EntryID, mapErr)
			}
			return &existing, false, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, false, apperrors.NewStorageError("failed to look up "+string(entry.Action)+" entry of document "+entry.DocumentID, err)
		}
	}

	var head *domain.AuditLogEntry
	headQuery := `SELECT ` + auditColumns + ` FROM audit_logs WHERE document_id = $1 ORDER BY sequence DESC LIMIT 1;`
	m, err := scanAuditLog(tx.QueryRow(ctx, headQuery, entry.DocumentID))
	switch {
	case err == nil:
		last, mapErr := mapping.ToDomainAuditLog(m)
		if mapErr != nil {
			return nil, false, apperrors.NewAppError(500, "failed to map audit head of document "+entry.DocumentID, mapErr)
		}
		head = &last
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, false, apperrors.NewStorageError("failed to read audit head of document "+entry.DocumentID, err)
	}

	sealed, err := auditchain.Seal(head, entry)
	if err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to seal audit entry", err)
	}
	row, err := mapping.ToModelAuditLog(sealed)
	if err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to map audit entry", err)
	}

	insert := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.Exec(ctx, insert,
		row.EntryID,
		row.DocumentID,
		row.Sequence,
		row.Action,
		row.Timestamp,
		row.IPAddress,
		row.Details,
		row.PrevHash,
		row.Hash,
	)
	if err != nil {
		return nil, false, translateInsertError(err, "failed to insert audit entry for document "+entry.DocumentID)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, false, err
	}
	return &sealed, true, nil
}

// ListEntriesByDocument retrieves a page of a document's trail in sequence order.
func (r *PgxAuditRepository) ListEntriesByDocument(ctx context.Context, documentID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	if limit <= 0 {
		limit = 50
	}
	var after int64
	if nextToken != nil && *nextToken != "" {
		seq, err := pagination.DecodeSequenceToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", errors.Join(apperrors.ErrValidation, err))
		}
		after = seq
	}

	// Fetch one extra item to determine if there's a next page.
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE document_id = $1 AND sequence > $2 ORDER BY sequence LIMIT $3;`
	entries, err := r.queryEntries(ctx, documentID, query, documentID, after, limit+1)
	if err != nil {
		return nil, nil, err
	}

	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeSequenceToken(entries[limit-1].Sequence)
		return entries, &token, nil
	}
	return entries, nil, nil
}

// ListAllEntriesByDocument retrieves the whole trail in sequence order.
func (r *PgxAuditRepository) ListAllEntriesByDocument(ctx context.Context, documentID string) ([]domain.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE document_id = $1 ORDER BY sequence;`
	return r.queryEntries(ctx, documentID, query, documentID)
}

func (r *PgxAuditRepository) queryEntries(ctx context.Context, documentID, query string, args ...any) ([]domain.AuditLogEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query audit trail of document "+documentID, err)
	}
	defer rows.Close()

	entries := []domain.AuditLogEntry{}
	for rows.Next() {
		m, err := scanAuditLog(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to scan audit row for document "+documentID, err)
		}
		e, err := mapping.ToDomainAuditLog(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to map audit entry "+m.EntryID+" (sequence "+strconv.FormatInt(m.Sequence, 10)+")", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("error iterating audit rows for document "+documentID, err)
	}
	return entries, nil
}
