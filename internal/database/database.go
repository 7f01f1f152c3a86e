// Package database opens the gorm connections the journal backends write to.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/model"
)

// MemoryDSN is the shared in-memory sqlite database.
const MemoryDSN = "file::memory:?cache=shared"

const batchSize = 1000

var sqlitePragmas = []string{
	"PRAGMA user_version = 1",
	"PRAGMA journal_mode = MEMORY",
	"PRAGMA synchronous = OFF",
	"PRAGMA cache_size = -32000",
	"PRAGMA temp_store = MEMORY",
}

// PostgresDSN renders cfg as a libpq keyword string.
func PostgresDSN(cfg config.DBConfig) string {
	ssl := cfg.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, ssl)
}

// OpenPostgres connects and pings. Slow statements and errors go to log.
func OpenPostgres(cfg config.DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 NewGormLogger(log, cfg.SlowQuery),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}

// OpenSQLite opens path, or the shared in-memory database when path is empty.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = MemoryDSN
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Discard,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

// Migrate creates or updates the session and marker event tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("migrate journal schema: %w", err)
	}
	return nil
}

// DumpSQLite snapshots db into path. The snapshot is written next to path
// and renamed over it, so a failed dump leaves the previous one intact.
func DumpSQLite(db *gorm.DB, path string) error {
	if path == "" {
		return errors.New("dump path not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	tmp := path + ".tmp"
	// VACUUM INTO refuses to overwrite
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := db.Exec("VACUUM INTO ?", tmp).Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
