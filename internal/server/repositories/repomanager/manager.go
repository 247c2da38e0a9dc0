package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/hashkeeper/internal/dbx"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/kv"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	KV(db dbx.DBTX) kv.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
