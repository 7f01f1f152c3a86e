package gormstore

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/database"
)

// PostgresBackend writes the journal to postgres. When postgres cannot be
// reached the manager falls back to in-memory SQLite dumped to fallbackPath.
type PostgresBackend struct {
	*Backend
	manager *database.Manager
}

// NewPostgres connects to the database described by cfg.
func NewPostgres(cfg config.DBConfig, log zerolog.Logger, fallbackPath string, deps Dependencies) (*PostgresBackend, error) {
	m := database.NewManager(log, fallbackPath)
	if err := m.Connect(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect journal database: %w", err)
	}
	deps.DB = m.DB

	return &PostgresBackend{Backend: New(deps), manager: m}, nil
}

// Local reports whether the SQLite fallback is in use.
func (b *PostgresBackend) Local() bool {
	return b.manager.Fallback()
}

// Close flushes the queue, dumps the fallback database if in use and
// releases the connection.
func (b *PostgresBackend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return errors.Join(b.manager.Dump(), b.manager.Close())
}
