// Package dbtest opens throwaway in-memory databases behind db.Mysql.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/db"
	"gorm.io/driver/sqlite"
)

// NewSqlite returns a db.Mysql backed by a private in-memory sqlite
// database, migrated with models. It is closed when the test ends.
func NewSqlite(t testing.TB, config *cfg.Config, models ...interface{}) *db.Mysql {
	t.Helper()

	// a single connection keeps the shared-cache database free of table locks
	testCfg := *config
	testCfg.Mysql.MaxOpenConnection = 1
	testCfg.Mysql.MaxIdleConnection = 1

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	mysql, err := db.NewMysqlWithDialector(&testCfg, sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to create sqlite handle: %v", err)
	}
	if len(models) > 0 {
		if err := mysql.Migrate(models...); err != nil {
			t.Fatalf("failed to migrate sqlite database: %v", err)
		}
	}
	t.Cleanup(func() {
		_ = mysql.Close()
	})
	return mysql
}
