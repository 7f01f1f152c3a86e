// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/pkg/core"
)

// Backend keeps the journal of the running session in memory and exports it
// to JSON when the session ends.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	events  []core.MarkerEvent

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports a session that was never ended.
func (b *Backend) Close() error {
	b.mu.RLock()
	open := b.session != nil
	b.mu.RUnlock()
	if open {
		return b.EndSession()
	}
	return nil
}

// StartSession begins a new journal, discarding the previous one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.events = nil
	return nil
}

// EndSession exports the journal and closes the session.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	err := b.exportJSON()
	b.session = nil
	return err
}

// RecordMarkerEvent appends an entry.
func (b *Backend) RecordMarkerEvent(e *core.MarkerEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, *e)
	return nil
}

// Events returns a copy of the journal of the running session.
func (b *Backend) Events() []core.MarkerEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.MarkerEvent, len(b.events))
	copy(out, b.events)
	return out
}

// ExportedFilePath returns the file written by the last EndSession.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
