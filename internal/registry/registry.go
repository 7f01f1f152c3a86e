// Package registry maps headgear model ids to light levels.
package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/ethria/headlamp/pkg/core"
)

// LoadResult counts what a Load kept and dropped.
type LoadResult struct {
	Loaded  int
	Skipped int
}

// Registry is replaced wholesale on every Load and read-only in between.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.ModelID]core.Level
	logger  *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[core.ModelID]core.Level),
		logger:  logger,
	}
}

// Load parses raw key/level pairs and replaces the current entries.
// Keys that are not integers and levels outside [0,15] are skipped with a warning.
func (r *Registry) Load(raw map[string]any) LoadResult {
	next := make(map[core.ModelID]core.Level, len(raw))
	var res LoadResult

	for key, value := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			r.logger.Warn("Invalid model id in glowing items", "key", key)
			res.Skipped++
			continue
		}

		lvl, err := parseLevel(value)
		if err != nil {
			r.logger.Warn("Invalid light level in glowing items", "key", key, "value", value)
			res.Skipped++
			continue
		}

		level := core.Level(lvl)
		if !level.Valid() {
			r.logger.Warn("Light level out of range in glowing items", "key", key, "level", lvl,
				"min", core.MinLevel, "max", core.MaxLevel)
			res.Skipped++
			continue
		}

		next[core.ModelID(id)] = level
		res.Loaded++
	}

	r.mu.Lock()
	r.entries = next
	r.mu.Unlock()

	r.logger.Debug("Glowing items loaded", "loaded", res.Loaded, "skipped", res.Skipped)
	return res
}

// parseLevel accepts integers, integral floats and decimal strings. Quoted
// values parse the same way as bare YAML integers.
func parseLevel(value any) (int, error) {
	switch v := value.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("level %v is not a whole number", v)
		}
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return 0, fmt.Errorf("level %v is not a whole number", v)
		}
	}
	return cast.ToIntE(value)
}

// Lookup returns the level for id, false if id does not glow.
func (r *Registry) Lookup(id core.ModelID) (core.Level, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lvl, ok := r.entries[id]
	return lvl, ok
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of the entries.
func (r *Registry) Snapshot() map[core.ModelID]core.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.entries)
}
