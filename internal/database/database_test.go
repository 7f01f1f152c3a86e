package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/model"
)

func memoryDB(t *testing.T) string {
	return "file:" + t.Name() + "?mode=memory&cache=shared"
}

func openMigrated(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(memoryDB(t))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func countEvents(t *testing.T, path string) int64 {
	t.Helper()
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Model(&model.MarkerEvent{}).Count(&n).Error)
	return n
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.DBConfig{Host: "db.local", Port: "5433", Username: "lamp", Password: "pw", Database: "journal"}
	assert.Equal(t, "host=db.local port=5433 user=lamp password=pw dbname=journal sslmode=disable", PostgresDSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestMigrateAndDump(t *testing.T) {
	db := openMigrated(t)
	require.NoError(t, db.Create(&model.MarkerEvent{
		Time:   time.Now(),
		Actor:  "alex",
		World:  "world",
		Kind:   "placed",
		Reason: "placement",
	}).Error)

	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	require.NoError(t, DumpSQLite(db, path))
	assert.Equal(t, int64(1), countEvents(t, path))

	require.NoError(t, db.Create(&model.MarkerEvent{Time: time.Now(), Actor: "sam", Kind: "cleared", Reason: "distance"}).Error)
	require.NoError(t, DumpSQLite(db, path))
	assert.Equal(t, int64(2), countEvents(t, path), "second dump replaces the first")

	_, err := os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDumpSQLite_NoPath(t *testing.T) {
	db, err := OpenSQLite(memoryDB(t))
	require.NoError(t, err)
	assert.Error(t, DumpSQLite(db, ""))
}

func TestManager_Fallback(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "fallback.db")
	m := NewManager(zerolog.Nop(), dump)

	// nothing listens on port 1
	require.NoError(t, m.Connect(config.DBConfig{Host: "127.0.0.1", Port: "1", Database: "x"}))
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.Fallback())
	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.Session{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.MarkerEvent{}))

	require.NoError(t, m.Dump())
	assert.FileExists(t, dump)
}

func TestManager_DumpWithoutFallback(t *testing.T) {
	m := NewManager(zerolog.Nop(), filepath.Join(t.TempDir(), "x.db"))
	m.DB = openMigrated(t)

	require.NoError(t, m.Dump())
	assert.NoFileExists(t, m.DumpPath)
}

func TestManager_SetupNotConnected(t *testing.T) {
	assert.Error(t, NewManager(zerolog.Nop(), "").Setup())
}

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name    string
		level   logger.LogLevel
		elapsed time.Duration
		err     error
		want    string
	}{
		{"fast query is quiet", logger.Warn, 0, nil, ""},
		{"slow query", logger.Warn, time.Second, nil, "Slow query"},
		{"failed query", logger.Warn, 0, errors.New("boom"), "Query failed"},
		{"record not found is quiet", logger.Warn, 0, gorm.ErrRecordNotFound, ""},
		{"silent", logger.Silent, time.Second, errors.New("boom"), ""},
		{"info logs everything", logger.Info, 0, nil, "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewGormLogger(zerolog.New(&buf), 100*time.Millisecond).LogMode(tt.level)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), sql, tt.err)

			if tt.want == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.want)
			}
		})
	}
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	base := NewGormLogger(zerolog.Nop(), 0)
	quiet := base.LogMode(logger.Silent)

	assert.Equal(t, logger.Warn, base.level)
	assert.Equal(t, logger.Silent, quiet.(*GormLogger).level)
}
