package main

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/storage"
	"github.com/ethria/headlamp/internal/storage/gormstore"
	"github.com/ethria/headlamp/internal/storage/memory"
	wsstorage "github.com/ethria/headlamp/internal/storage/websocket"
)

// createStorageBackend builds the journal backend selected by storage.type.
func createStorageBackend(cfg config.StorageConfig, logger *slog.Logger, zlog zerolog.Logger) (storage.Backend, error) {
	deps := gormstore.Dependencies{Logger: logger, FlushInterval: cfg.FlushInterval}

	switch cfg.Type {
	case "none":
		logger.Info("Journal disabled")
		return storage.Discard{}, nil

	case "postgres":
		backend, err := gormstore.NewPostgres(config.GetDBConfig(), zlog, cfg.SQLite.DumpPath, deps)
		if err != nil {
			return nil, err
		}
		logger.Info("Postgres journal backend initialized", "local", backend.Local())
		return backend, nil

	case "sqlite":
		backend, err := gormstore.NewSQLite(gormstore.SQLiteConfig{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite journal backend initialized", "dumpPath", cfg.SQLite.DumpPath)
		return backend, nil

	case "websocket":
		logger.Info("WebSocket journal backend initialized", "url", cfg.WebSocket.URL)
		return wsstorage.New(wsstorage.Config{
			URL:    cfg.WebSocket.URL,
			Secret: cfg.WebSocket.Secret,
		}, logger), nil

	case "memory", "":
		logger.Info("Memory journal backend initialized", "outputDir", cfg.Memory.OutputDir)
		return memory.New(cfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
