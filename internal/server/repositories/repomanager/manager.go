// Package repomanager builds repositories over a shared DB handle and runs
// schema migrations. Services never construct a concrete repository
// themselves.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wayfare/internal/dbx"
	"github.com/dmitrijs2005/wayfare/internal/server/repositories/entities"
	"github.com/dmitrijs2005/wayfare/internal/server/repositories/media"
	"github.com/dmitrijs2005/wayfare/internal/server/repositories/quotas"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Media(db dbx.DBTX) media.Repository
	Quotas(db dbx.DBTX) quotas.Repository
	Entities(db dbx.DBTX) entities.Repository
}
