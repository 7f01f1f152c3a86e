package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethria/headlamp/pkg/core"
)

// JournalExport is the root JSON structure of an exported session.
type JournalExport struct {
	Session core.Session       `json:"session"`
	Counts  map[string]int     `json:"counts"` // entries per kind
	Events  []core.MarkerEvent `json:"events"`
}

var unsafeName = strings.NewReplacer(" ", "_", ":", "_", "/", "_")

func (b *Backend) buildExport() JournalExport {
	counts := make(map[string]int)
	for _, e := range b.events {
		counts[string(e.Kind)]++
	}
	events := b.events
	if events == nil {
		events = []core.MarkerEvent{}
	}
	return JournalExport{Session: *b.session, Counts: counts, Events: events}
}

func (b *Backend) exportName() string {
	name := unsafeName.Replace(b.session.Key)
	if name == "" {
		name = "session"
	}
	name += ".json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return name
}

// exportJSON writes the journal to OutputDir. Callers hold b.mu.
func (b *Backend) exportJSON() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(b.cfg.OutputDir, b.exportName())
	if err := writeExport(path, b.buildExport(), b.cfg.CompressOutput); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	b.lastExportPath = path
	return nil
}

func writeExport(path string, data JournalExport, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	var w io.Writer = f
	if compress {
		gw := gzip.NewWriter(f)
		defer func() { err = errors.Join(err, gw.Close()) }()
		w = gw
	}
	return json.NewEncoder(w).Encode(data)
}
