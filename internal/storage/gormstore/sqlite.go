package gormstore

import (
	"fmt"
	"time"

	"github.com/ethria/headlamp/internal/database"
)

// SQLiteConfig holds configuration for the in-memory SQLite variant.
type SQLiteConfig struct {
	DSN          string // empty for the shared in-memory database
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// SQLiteBackend keeps the journal in an in-memory SQLite database and dumps
// it to disk periodically and on close.
type SQLiteBackend struct {
	*Backend
	cfg      SQLiteConfig
	stopDump chan struct{}
}

// NewSQLite creates a new SQLite journal backend.
func NewSQLite(cfg SQLiteConfig, deps Dependencies) (*SQLiteBackend, error) {
	db, err := database.OpenSQLite(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	deps.DB = db

	return &SQLiteBackend{
		Backend:  New(deps),
		cfg:      cfg,
		stopDump: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *SQLiteBackend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, flushes the queue and writes a final dump.
func (b *SQLiteBackend) Close() error {
	select {
	case <-b.stopDump:
	default:
		close(b.stopDump)
	}

	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.Dump()
}

// Dump writes a point-in-time copy of the database to DumpPath.
func (b *SQLiteBackend) Dump() error {
	start := time.Now()
	if err := database.DumpSQLite(b.deps.DB, b.cfg.DumpPath); err != nil {
		return err
	}
	b.deps.Logger.Debug("Dumped journal to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *SQLiteBackend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopDump:
			return
		case <-ticker.C:
			if err := b.Backend.Flush(); err != nil {
				b.deps.Logger.Warn("Flush before dump failed", "error", err)
			}
			if err := b.Dump(); err != nil {
				b.deps.Logger.Error("Error dumping journal to disk", "error", err)
			}
		}
	}
}
