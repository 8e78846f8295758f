// Package persistencetest provides an in-memory SQLite database with the full
// schema for repository and service tests.
package persistencetest

import (
	"testing"

	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pendingRequestIndex mirrors the partial unique index of the migrations
const pendingRequestIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_approval_requests_pending_document
ON approval_requests (document_type, document_id) WHERE status = 'pending'`

// NewDB opens an in-memory SQLite database and migrates every model.
// The pool is limited to one connection so all queries see the same database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, db.Exec(pendingRequestIndex).Error)
	return db
}
