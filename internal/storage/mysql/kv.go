package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

type KVStorage struct {
	db *sql.DB
}

func NewKVStorage(db *sql.DB) *KVStorage {
	return &KVStorage{db: db}
}

// Open connects with dsn and creates the kv table when missing.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	const query = "CREATE TABLE IF NOT EXISTS kv (" +
		"`key` VARCHAR(255) PRIMARY KEY, " +
		"`value` LONGBLOB NOT NULL, " +
		"created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP, " +
		"updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" +
		")"
	_, err := db.ExecContext(ctx, query)
	return err
}

func (s *KVStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const query = "SELECT `value` FROM kv WHERE `key` = ?"
	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrKeyNotFound
		}
		return nil, fmt.Errorf("could not get key %q: %w", key, err)
	}
	return value, nil
}

func (s *KVStorage) Set(ctx context.Context, key string, value []byte) error {
	const query = "INSERT INTO kv (`key`, `value`) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE `value` = VALUES(`value`)"
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("could not set key %q: %w", key, err)
	}
	return nil
}
