// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"testing"
	"time"

	"inventory-ledger/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenRaw returns an empty database. A single connection keeps ":memory:"
// pointing at the same database for the lifetime of the test.
func OpenRaw(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// Open returns a database with every migration applied
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db := OpenRaw(t)
	_, err := database.Migrate(db)
	require.NoError(t, err)
	return db
}
