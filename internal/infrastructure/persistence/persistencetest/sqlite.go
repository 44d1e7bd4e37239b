// Package persistencetest opens throwaway SQLite databases carrying the
// platform schema, for repository and service tests.
package persistencetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns an isolated in-memory database with every platform table
// migrated. Each call gets its own named shared-cache database so pooled
// connections see the same data.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
