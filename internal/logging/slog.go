// Package logging builds the process logger: a text or JSON handler on the
// log file, plus optional OTel and Graylog outputs, all sharing the same
// level and the same per-record context attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// stdout is swapped by tests.
var stdout io.Writer = os.Stdout

// ContextProvider returns attributes added to every record at write time.
type ContextProvider func() []slog.Attr

// Options configures Setup.
type Options struct {
	// Output is the log file. Nil writes to stdout.
	Output io.Writer
	Level  string
	// Format is "text" (default) or "json".
	Format string
	// Provider enables the OTel bridge when set.
	Provider *sdklog.LoggerProvider
	Extra    []slog.Handler
}

// SlogManager owns the process logger.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
	ctxProvider atomic.Pointer[ContextProvider]
}

// NewSlogManager creates a manager whose Logger is slog.Default until Setup runs.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// ParseLevel converts a level name to slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetContextProvider registers attributes added to every record, such as
// the running session. It may be called before or after Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.ctxProvider.Store(&p)
}

func (m *SlogManager) contextAttrs() []slog.Attr {
	p := m.ctxProvider.Load()
	if p == nil || *p == nil {
		return nil
	}
	return (*p)()
}

// Setup replaces the logger. Loggers handed out earlier keep their old outputs.
func (m *SlogManager) Setup(opts Options) {
	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	out := opts.Output
	if out == nil {
		out = stdout
	}

	var primary slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		primary = slog.NewJSONHandler(out, handlerOpts)
	} else {
		primary = slog.NewTextHandler(out, handlerOpts)
	}

	outputs := []slog.Handler{primary}
	if opts.Provider != nil {
		outputs = append(outputs, otelslog.NewHandler("headlamp", otelslog.WithLoggerProvider(opts.Provider)))
	}
	outputs = append(outputs, opts.Extra...)

	m.logProvider = opts.Provider
	m.logger = slog.New(newContextHandler(newFanout(outputs...), m.contextAttrs))
	m.logger.Info("Logging initialized", "level", handlerOpts.Level, "outputs", len(outputs))
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces pending OTel records out.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
