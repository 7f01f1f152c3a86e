// Package streaming defines the JSON envelope exchanged with a journal server.
package streaming

import (
	"encoding/json"

	"github.com/ethria/headlamp/pkg/core"
)

// Message type constants of the journal stream.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeMarkerEvent  = "marker_event"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a new recording session.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}
