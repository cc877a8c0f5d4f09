package repomanager

import (
	"context"
	"database/sql"

	"github.com/samifathi/invoice-api/internal/dbx"
	"github.com/samifathi/invoice-api/internal/server/repositories/invoices"
	"github.com/samifathi/invoice-api/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so services can
// run the same code against *sql.DB or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Invoices(db dbx.DBTX) invoices.Repository
}
