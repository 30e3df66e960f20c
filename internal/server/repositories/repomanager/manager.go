package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/filerecords"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/quotas"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/sharegrants"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same constructors against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Quotas(db dbx.DBTX) quotas.Repository
	FileRecords(db dbx.DBTX) filerecords.Repository
	ShareGrants(db dbx.DBTX) sharegrants.Repository
}
