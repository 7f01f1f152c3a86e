package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/internal/light"
)

type fixedStatus light.Status

func (f fixedStatus) Status() light.Status { return light.Status(f) }

func TestGetStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s := NewService(Dependencies{
		Engine:     fixedStatus{Running: true, Markers: 3, Actors: 2, GlowingItems: 5},
		Pending:    func() int { return 7 },
		SessionKey: "lobby_20260301_120000",
		Now:        func() time.Time { return clock },
	})
	clock = now.Add(90 * time.Second)

	st := s.GetStatus()
	assert.Equal(t, clock, st.Time)
	assert.Equal(t, "lobby_20260301_120000", st.Session)
	assert.Equal(t, light.Status{Running: true, Markers: 3, Actors: 2, GlowingItems: 5}, st.Engine)
	assert.Equal(t, 7, st.JournalPending)
	assert.Equal(t, "1m30s", st.Uptime)
}

func TestGetStatus_NoSources(t *testing.T) {
	st := NewService(Dependencies{}).GetStatus()
	assert.Zero(t, st.Engine)
	assert.Zero(t, st.JournalPending)
}

func TestWriteStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "status.json")
	s := NewService(Dependencies{
		Engine:     fixedStatus{Markers: 4},
		StatusFile: path,
	})

	require.NoError(t, s.WriteStatus())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, 4, st.Engine.Markers)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{
		Engine:     fixedStatus{Actors: 1},
		StatusFile: path,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_RequiresFile(t *testing.T) {
	assert.Error(t, NewService(Dependencies{}).Start())
}
