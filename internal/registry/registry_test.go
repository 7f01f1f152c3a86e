package registry

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/pkg/core"
)

func newTestRegistry(t *testing.T) (*Registry, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(logger), &buf
}

func TestLoad_ValidEntries(t *testing.T) {
	r, _ := newTestRegistry(t)

	res := r.Load(map[string]any{
		"10":   12,
		"1001": "15",
		"7":    0,
		"8":    9.0, // YAML may decode numbers as floats
	})

	assert.Equal(t, LoadResult{Loaded: 4}, res)
	assert.Equal(t, 4, r.Len())

	lvl, ok := r.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, core.Level(12), lvl)

	lvl, ok = r.Lookup(1001)
	require.True(t, ok)
	assert.Equal(t, core.Level(15), lvl)

	lvl, ok = r.Lookup(8)
	require.True(t, ok)
	assert.Equal(t, core.Level(9), lvl)
}

func TestLoad_SkipsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		warn  string
	}{
		{"non-integer key", "helmet", 5, "Invalid model id"},
		{"float key", "1.5", 5, "Invalid model id"},
		{"level too high", "3", 16, "out of range"},
		{"negative level", "4", -1, "out of range"},
		{"non-numeric level", "5", "bright", "Invalid light level"},
		{"fractional level", "6", 7.5, "Invalid light level"},
		{"hex string level", "9", "0x0F", "Invalid light level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, logs := newTestRegistry(t)

			res := r.Load(map[string]any{tt.key: tt.value, "1": 1})

			assert.Equal(t, LoadResult{Loaded: 1, Skipped: 1}, res)
			assert.Contains(t, logs.String(), tt.warn)
			assert.Contains(t, logs.String(), "level=WARN")
		})
	}
}

func TestLoad_QuotedLevelsAreDecimal(t *testing.T) {
	r, _ := newTestRegistry(t)

	res := r.Load(map[string]any{"1": "010", "2": " 7 ", "3": 10})

	assert.Equal(t, LoadResult{Loaded: 3}, res)
	assert.Equal(t, map[core.ModelID]core.Level{1: 10, 2: 7, 3: 10}, r.Snapshot())
}

func TestLoad_ReplacesPreviousEntries(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.Load(map[string]any{"1": 5, "2": 6})
	r.Load(map[string]any{"3": 7})

	_, ok := r.Lookup(1)
	assert.False(t, ok, "reload must not merge")
	_, ok = r.Lookup(2)
	assert.False(t, ok)
	lvl, ok := r.Lookup(3)
	assert.True(t, ok)
	assert.Equal(t, core.Level(7), lvl)
}

func TestLoad_Empty(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Load(map[string]any{"1": 5})

	res := r.Load(nil)

	assert.Equal(t, LoadResult{}, res)
	assert.Equal(t, 0, r.Len())
}

func TestLookup_Missing(t *testing.T) {
	r := New(nil)
	_, ok := r.Lookup(core.NoModel)
	assert.False(t, ok)
}

func TestSnapshot_IsCopy(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Load(map[string]any{"1": 5})

	snap := r.Snapshot()
	snap[2] = 3

	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup(2)
	assert.False(t, ok)
}
