// Package storage opens the key-value backend a checklist is kept in.
package storage

import (
	"context"
	"fmt"

	"github.com/agalitsyn/checklist-bot/internal/model"
	"github.com/agalitsyn/checklist-bot/internal/storage/memory"
	"github.com/agalitsyn/checklist-bot/internal/storage/mysql"
	"github.com/agalitsyn/checklist-bot/internal/storage/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Open returns the store for driver and a function releasing it. dsn is a
// file path for sqlite and a go-sql-driver DSN for mysql.
func Open(ctx context.Context, driver, dsn string) (model.KVStorage, func() error, error) {
	switch driver {
	case DriverSQLite, "":
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewKVStorage(db), db.Close, nil
	case DriverMySQL:
		db, err := mysql.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return mysql.NewKVStorage(db), db.Close, nil
	case DriverMemory:
		s := memory.NewKVStorage()
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
