package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/events"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// service can run several repositories inside one transaction by handing
// them the same tx handle.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Events(db dbx.DBTX) events.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
