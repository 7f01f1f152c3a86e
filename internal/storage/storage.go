// internal/storage/storage.go
package storage

import "github.com/ethria/headlamp/pkg/core"

// Backend is the interface all journal implementations must satisfy.
// RecordMarkerEvent is called on the host's main context and must not block.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	RecordMarkerEvent(e *core.MarkerEvent) error
}

// Exporter is an optional interface for backends that write a file when a
// session ends.
type Exporter interface {
	ExportedFilePath() string
}

// Discard is a backend that drops everything, used for storage.type "none".
type Discard struct{}

func (Discard) Init() error { return nil }
func (Discard) Close() error { return nil }
func (Discard) StartSession(*core.Session) error { return nil }
func (Discard) EndSession() error { return nil }
func (Discard) RecordMarkerEvent(*core.MarkerEvent) error { return nil }

// UploadMetadata describes an exported journal file sent to a collector.
type UploadMetadata struct {
	Session  string
	Server   string
	Duration float64 // seconds
	Tag      string
}
