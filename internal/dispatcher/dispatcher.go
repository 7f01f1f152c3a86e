// Package dispatcher routes host calls to registered handlers. Handlers run
// synchronously on the caller's goroutine, which is the host's main context,
// so they must not block.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ethria/headlamp/internal/dispatcher"

// Event is one host call.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Option configures handler registration.
type Option func(*route)

type route struct {
	handler HandlerFunc
	logged  bool
}

// Logged adds debug logging around the handler.
func Logged() Option {
	return func(r *route) {
		r.logged = true
	}
}

// Dispatcher routes events to registered handlers. A panicking handler is
// reported as an error and never reaches the host.
type Dispatcher struct {
	mu     sync.RWMutex
	routes map[string]*route
	logger *slog.Logger

	processed metric.Int64Counter
	failed    metric.Int64Counter
	unknown   metric.Int64Counter
	latency   metric.Float64Histogram
}

// New creates a dispatcher using the global OTel meter (no-op until a
// provider is installed). A nil logger uses slog.Default.
func New(logger *slog.Logger) (*Dispatcher, error) {
	return NewWithMeter(logger, otel.Meter(instrumentationName))
}

// NewWithMeter creates a dispatcher recording to m.
func NewWithMeter(logger *slog.Logger, m metric.Meter) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		routes: make(map[string]*route),
		logger: logger,
	}

	var err error
	if d.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Total events processed")); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if d.failed, err = m.Int64Counter("dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error or panicked")); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	if d.unknown, err = m.Int64Counter("dispatcher.events.unknown",
		metric.WithDescription("Total events without a registered handler")); err != nil {
		return nil, fmt.Errorf("creating unknown counter: %w", err)
	}
	if d.latency, err = m.Float64Histogram("dispatcher.events.duration",
		metric.WithDescription("Handler run time"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return d, nil
}

// Register adds a handler for the command. Registering the same command
// twice replaces the previous handler.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	r := &route{handler: h}
	for _, opt := range opts {
		opt(r)
	}

	d.mu.Lock()
	d.routes[command] = r
	d.mu.Unlock()
}

// Unregister removes the handler for the command, if any.
func (d *Dispatcher) Unregister(command string) {
	d.mu.Lock()
	delete(d.routes, command)
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	r, ok := d.routes[e.Command]
	d.mu.RUnlock()

	ctx := context.Background()
	cmdAttr := metric.WithAttributes(attribute.String("command", e.Command))

	if !ok {
		d.unknown.Add(ctx, 1, cmdAttr)
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}

	if r.logged {
		d.logger.Debug("handling event", "command", e.Command, "args", len(e.Args))
	}

	start := time.Now()
	result, err := d.run(r.handler, e)
	elapsed := time.Since(start)

	d.processed.Add(ctx, 1, cmdAttr)
	d.latency.Record(ctx, float64(elapsed.Microseconds())/1000, cmdAttr)
	if err != nil {
		d.failed.Add(ctx, 1, cmdAttr)
	}

	switch {
	case err != nil && r.logged:
		d.logger.Error("event failed", "command", e.Command, "duration", elapsed, "error", err)
	case r.logged:
		d.logger.Debug("event complete", "command", e.Command, "duration", elapsed)
	}
	return result, err
}

func (d *Dispatcher) run(h HandlerFunc, e Event) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("handler panicked", "command", e.Command, "panic", p, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("%s: handler panicked: %v", e.Command, p)
		}
	}()
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.routes))
	for cmd := range d.routes {
		out = append(out, cmd)
	}
	d.mu.RUnlock()

	sort.Strings(out)
	return out
}
