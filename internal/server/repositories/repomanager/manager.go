package repomanager

import (
	"context"
	"database/sql"

	"github.com/victoryapp/victory/internal/dbx"
	"github.com/victoryapp/victory/internal/server/repositories/identities"
	"github.com/victoryapp/victory/internal/server/repositories/nodes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Nodes(db dbx.DBTX) nodes.Repository
	Identities(db dbx.DBTX) identities.Repository
}
