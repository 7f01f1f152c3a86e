package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/ethria/headlamp/pkg/streaming"
)

const (
	sendChSize   = 10_000
	ackChSize    = 16
	maxReconnect = 10
	firstBackoff = time.Second
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

var errClosed = errors.New("websocket journal closed")

// connection owns one socket at a time. A single write loop drains sendCh;
// the read loop only routes acks. Either loop failing triggers one reconnect.
type connection struct {
	url    string
	header http.Header
	logger *slog.Logger

	sendCh chan []byte
	ackCh  chan streaming.AckMessage
	done   chan struct{}

	mu       sync.Mutex
	conn     *ws.Conn
	closed   bool
	startMsg []byte // replayed after a reconnect

	reconnecting atomic.Bool
	dropped      atomic.Uint64
}

func newConnection(rawURL, secret string, logger *slog.Logger) *connection {
	header := http.Header{}
	if secret != "" {
		header.Set("Authorization", "Bearer "+secret)
	}
	return &connection{
		url:    rawURL,
		header: header,
		logger: logger,
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
	}
}

func (c *connection) dial() error {
	conn, _, err := ws.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.url, err)
	}
	c.attach(conn)
	return nil
}

// attach installs conn and starts both loops for it.
func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)
}

func (c *connection) current() *ws.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func writeFrame(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

func (c *connection) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := writeFrame(conn, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				c.lost(conn)
				return
			}
		}
	}
}

func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("WebSocket read error", "error", err)
				c.lost(conn)
			}
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.logger.Debug("Ignoring non-ack message", "raw", string(message))
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.logger.Debug("Ack channel full, dropping", "for", ack.For)
		}
	}
}

// lost retires conn and starts a reconnect unless one is already running
// or conn was already replaced.
func (c *connection) lost(conn *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	_ = conn.Close()

	if c.reconnecting.CompareAndSwap(false, true) {
		go c.reconnect()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

// reconnect redials with exponential backoff and replays start_session so
// the server can attribute the events that follow.
func (c *connection) reconnect() {
	defer c.reconnecting.Store(false)

	backoff := firstBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", backoff)
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, _, err := ws.DefaultDialer.Dial(c.url, c.header)
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = nextBackoff(backoff)
			continue
		}

		if start := c.startMessage(); start != nil {
			if err := writeFrame(conn, start); err != nil {
				c.logger.Warn("Failed to replay start_session after reconnect", "error", err)
				_ = conn.Close()
				backoff = nextBackoff(backoff)
				continue
			}
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.mu.Unlock()

		c.attach(conn)
		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

func (c *connection) setStartMessage(data []byte) {
	c.mu.Lock()
	c.startMsg = data
	c.mu.Unlock()
}

func (c *connection) startMessage() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startMsg
}

// send queues data for the write loop. It never blocks; a full queue drops
// the message and returns false.
func (c *connection) send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		if n := c.dropped.Add(1); n == 1 || n%1000 == 0 {
			c.logger.Warn("WebSocket send queue full, dropping messages", "dropped", n)
		}
		return false
	}
}

// sendAndWait queues data and blocks until an ack for ackFor arrives.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	if !c.send(data) {
		return fmt.Errorf("send queue full, %s not sent", ackFor)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("waiting for ack of %q: %w", ackFor, errClosed)
		}
	}
}

// close sends a close frame and stops both loops. Safe to call twice.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return conn.Close()
}
