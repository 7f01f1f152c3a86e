package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ethria/headlamp/pkg/core"
	"github.com/ethria/headlamp/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams the journal over WebSocket to a collecting server.
type Backend struct {
	conn   *connection
	sent   atomic.Uint64
	active atomic.Bool
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(cfg.URL, cfg.Secret, logger.With("component", "websocket")),
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial()
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Sent returns the number of marker events handed to the write loop.
func (b *Backend) Sent() uint64 {
	return b.sent.Load()
}

// Dropped returns the number of messages lost to a full send queue.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartSession announces the session and waits for the server ack.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	b.conn.setStartMessage(data)

	if err := b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout); err != nil {
		return err
	}
	b.active.Store(true)
	return nil
}

// EndSession sends end_session and waits for the server ack.
func (b *Backend) EndSession() error {
	if !b.active.Swap(false) {
		return nil
	}

	data, err := marshalEnvelope(streaming.TypeEndSession, nil)
	if err == nil {
		err = b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
	}

	// no replay after the session is over, whatever the server said
	b.conn.setStartMessage(nil)

	return err
}

// RecordMarkerEvent sends the event without waiting.
func (b *Backend) RecordMarkerEvent(e *core.MarkerEvent) error {
	data, err := marshalEnvelope(streaming.TypeMarkerEvent, e)
	if err != nil {
		return err
	}
	if b.conn.send(data) {
		b.sent.Add(1)
	}
	return nil
}
