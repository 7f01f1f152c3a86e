package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ethria/headlamp/internal/config"
)

// Manager owns the postgres journal connection. When postgres cannot be
// reached it switches to the shared in-memory sqlite database, which Dump
// writes to DumpPath.
type Manager struct {
	DB       *gorm.DB
	DumpPath string

	log      zerolog.Logger
	fallback bool
}

// NewManager creates an unconnected manager.
func NewManager(log zerolog.Logger, dumpPath string) *Manager {
	return &Manager{DumpPath: dumpPath, log: log}
}

// Connect opens postgres, falling back to in-memory sqlite.
func (m *Manager) Connect(cfg config.DBConfig) error {
	db, err := OpenPostgres(cfg, m.log)
	if err == nil {
		m.log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to journal database")
		m.DB = db
		return nil
	}

	m.log.Error().Err(err).Msg("Postgres unavailable, journaling to in-memory SQLite")
	db, serr := OpenSQLite("")
	if serr != nil {
		return fmt.Errorf("postgres: %w; sqlite fallback: %w", err, serr)
	}
	m.DB = db
	m.fallback = true
	return nil
}

// Fallback reports whether the in-memory sqlite database is in use.
func (m *Manager) Fallback() bool {
	return m.fallback
}

// Setup migrates the journal tables.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return errors.New("not connected")
	}
	m.log.Info().Str("dialect", m.DB.Name()).Msg("Migrating journal schema")
	return Migrate(m.DB)
}

// Dump snapshots the fallback database to DumpPath. It does nothing while
// connected to postgres or when no path is set.
func (m *Manager) Dump() error {
	if !m.fallback || m.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := DumpSQLite(m.DB, m.DumpPath); err != nil {
		return err
	}
	m.log.Info().Str("path", m.DumpPath).Dur("duration", time.Since(start)).Msg("Dumped fallback journal")
	return nil
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
