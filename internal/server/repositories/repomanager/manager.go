package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/workly/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/workly/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repositories inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Contracts(db dbx.DBTX) contracts.Repository
}
