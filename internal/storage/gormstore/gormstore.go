// Package gormstore implements the storage.Backend interface using GORM
// with an internal queue and a background DB writer goroutine.
package gormstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/ethria/headlamp/internal/database"
	"github.com/ethria/headlamp/internal/model"
	"github.com/ethria/headlamp/internal/queue"
	"github.com/ethria/headlamp/pkg/core"
)

const (
	// DefaultFlushInterval is used when Dependencies.FlushInterval is zero.
	DefaultFlushInterval = 2 * time.Second
	// DefaultMaxPending bounds the rows held while the database is unreachable.
	DefaultMaxPending = 100_000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
	MaxPending    int
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	events    *queue.Queue[model.MarkerEvent]
	sessionID atomic.Uint64
	stopChan  chan struct{}
	wg        sync.WaitGroup
	flushMu   sync.Mutex
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.MaxPending <= 0 {
		deps.MaxPending = DefaultMaxPending
	}
	return &Backend{
		deps:   deps,
		events: queue.New[model.MarkerEvent](deps.MaxPending),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gormstore: no database connection")
	}

	b.deps.Logger.Info("Migrating journal schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.startDBWriter()
	return nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Close stops the DB writer goroutine and writes what is still queued.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			b.wg.Wait()
		}
	})
	if b.deps.DB == nil {
		return nil
	}
	return b.Flush()
}

// StartSession inserts the session row synchronously; sessions are rare and
// every queued event needs the row's ID.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}

	row := model.CoreToSession(*s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	b.sessionID.Store(uint64(row.ID))
	return nil
}

// SessionID returns the row ID of the running session, 0 if none.
func (b *Backend) SessionID() uint {
	return uint(b.sessionID.Load())
}

// EndSession writes queued events and stamps the session end time.
func (b *Backend) EndSession() error {
	if b.deps.DB == nil {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}

	id := b.sessionID.Swap(0)
	if id == 0 {
		return nil
	}
	return b.deps.DB.Model(&model.Session{}).
		Where("id = ?", id).
		Update("ended_at", sql.NullTime{Time: time.Now(), Valid: true}).Error
}

// RecordMarkerEvent converts and queues a journal entry.
func (b *Backend) RecordMarkerEvent(e *core.MarkerEvent) error {
	b.events.Push(model.CoreToMarkerEvent(*e))
	return nil
}

// Pending returns the number of queued rows.
func (b *Backend) Pending() int {
	return b.events.Len()
}

// Flush writes all queued rows now.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	sessionID := uint(b.sessionID.Load())
	return writeQueue(b.deps.DB, b.events, "marker events", b.deps.Logger, func(items []model.MarkerEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	})
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) error {
	items := q.Drain()
	if len(items) == 0 {
		return nil
	}
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.CreateInBatches(&items, 500).Error; err != nil {
		log.Error("Error writing queued rows", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		requeue(q, items, name, log)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		requeue(q, items, name, log)
		return fmt.Errorf("committing %s: %w", name, err)
	}

	log.Debug("Wrote queued rows", "table", name, "count", len(items))
	return nil
}

func requeue[T any](q *queue.Queue[T], items []T, name string, log *slog.Logger) {
	if n := q.Requeue(items); n > 0 {
		log.Warn("Journal queue full, oldest rows discarded", "table", name, "discarded", n, "total", q.Dropped())
	}
}

// startDBWriter starts the background goroutine that periodically drains the queue into the DB.
func (b *Backend) startDBWriter() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				// errors are logged by writeQueue, rows stay queued
				_ = b.Flush()
			}
		}
	}()
}
