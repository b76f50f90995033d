package pgsql

import (
	portsrepo "github.com/SscSPs/doc_signing_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		DocumentRepo:  newPgxDocumentRepository(dbPool),
		SignatureRepo: newPgxSignatureRepository(dbPool),
		AuditRepo:     newPgxAuditRepository(dbPool),
	}
}
