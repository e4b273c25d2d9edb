// Package dbtest opens throwaway SQLite databases with the plan library schema.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dosreb/planlibrary/internal/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated database in the test's temp dir. The file is
// removed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "planlibrary.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}
