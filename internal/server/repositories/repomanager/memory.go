package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/siteadmin/internal/dbx"
	"github.com/dmitrijs2005/siteadmin/internal/server/repositories/admins"
)

// InMemoryRepositoryManager serves one shared in-memory store regardless of
// the handle it is given. Migrations are a no-op.
type InMemoryRepositoryManager struct {
	admins *admins.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{admins: admins.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Admins(dbx.DBTX) admins.Repository {
	return m.admins
}
