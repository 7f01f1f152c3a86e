package addon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/internal/command"
	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/internal/dispatcher"
	"github.com/ethria/headlamp/internal/handlers"
	"github.com/ethria/headlamp/internal/light"
	"github.com/ethria/headlamp/internal/registry"
	"github.com/ethria/headlamp/internal/sim"
	"github.com/ethria/headlamp/internal/tracker"
	"github.com/ethria/headlamp/pkg/core"
)

var (
	_ Module              = (*CustomLight)(nil)
	_ command.CustomLight = (*CustomLight)(nil)
	_ handlers.Reloader   = (*CustomLight)(nil)
)

type customLightEnv struct {
	sim    *sim.Sim
	disp   *dispatcher.Dispatcher
	engine *light.Engine
	module *CustomLight
	cfg    config.LightConfig
}

func newCustomLightEnv(t *testing.T) *customLightEnv {
	t.Helper()

	env := &customLightEnv{
		sim: sim.New(),
		cfg: config.LightConfig{
			GlowingItems:       map[string]any{"10": 12, "11": 20},
			Radius:             10,
			UpdateInterval:     1,
			RemoveAllOnUnequip: true,
			MaxMarkersPerActor: 3,
			SettleDelay:        1,
			HeadgearSlot:       39,
			VerticalOffset:     2,
		},
	}

	engine, err := light.New(light.Dependencies{
		Host:     env.sim,
		Registry: registry.New(nil),
		Tracker:  tracker.New(),
	}, light.DefaultSettings())
	require.NoError(t, err)
	env.engine = engine

	env.disp, err = dispatcher.New(nil)
	require.NoError(t, err)

	env.module, err = NewCustomLight(CustomLightDeps{
		Engine:       engine,
		Dispatcher:   env.disp,
		Config:       func() config.LightConfig { return env.cfg },
		ReloadConfig: func() error { return nil },
	})
	require.NoError(t, err)
	return env
}

func TestNewCustomLight_RequiresEngine(t *testing.T) {
	_, err := NewCustomLight(CustomLightDeps{})
	assert.Error(t, err)
}

func TestCustomLight_EnableDisable(t *testing.T) {
	env := newCustomLightEnv(t)
	assert.Equal(t, CustomLightName, env.module.Name())

	require.NoError(t, env.module.Enable())
	assert.True(t, env.module.Active())
	assert.True(t, env.engine.Running())
	assert.True(t, env.disp.HasHandler(handlers.CmdInventoryClick))

	st := env.module.Status()
	assert.Equal(t, 1, st.GlowingItems, "level 20 is out of range")

	env.sim.Join("alex", "Alex", core.NewPosition("world", 0, 64, 0))
	require.NoError(t, env.sim.Equip("alex", 10))
	env.sim.Tick()
	require.Len(t, env.sim.Lights(), 1)

	require.NoError(t, env.module.Disable())
	assert.False(t, env.module.Active())
	assert.False(t, env.engine.Running())
	assert.False(t, env.disp.HasHandler(handlers.CmdInventoryClick))
	assert.Empty(t, env.sim.Lights(), "disable removes markers from the world")
}

func TestCustomLight_EnableFailsWithoutScheduler(t *testing.T) {
	env := newCustomLightEnv(t)
	env.sim.SetSchedulerDown(true)

	err := env.module.Enable()
	assert.ErrorIs(t, err, light.ErrSchedulerUnavailable)
	assert.False(t, env.module.Active())
	assert.False(t, env.disp.HasHandler(handlers.CmdInventoryClick))
}

func TestCustomLight_Reload(t *testing.T) {
	env := newCustomLightEnv(t)
	require.NoError(t, env.module.Enable())

	env.cfg.GlowingItems = map[string]any{"10": 12, "12": 3, "x": 1}
	env.cfg.Radius = 4

	loaded, skipped, err := env.module.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 4.0, env.engine.Settings().RemovalRadius)
}

func TestCustomLight_ReloadRereadsConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("light:\n  glowingItems:\n    \"10\": 12\n"), 0o644))
	require.NoError(t, config.Load(dir))

	engine, err := light.New(light.Dependencies{
		Host:     sim.New(),
		Registry: registry.New(nil),
		Tracker:  tracker.New(),
	}, light.DefaultSettings())
	require.NoError(t, err)
	disp, err := dispatcher.New(nil)
	require.NoError(t, err)

	m, err := NewCustomLight(CustomLightDeps{Engine: engine, Dispatcher: disp})
	require.NoError(t, err)
	require.NoError(t, m.Enable())
	t.Cleanup(func() { _ = m.Disable() })
	require.False(t, engine.Glows(20))

	body := "light:\n  radius: 6\n  glowingItems:\n    \"10\": 12\n    \"20\": 5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	loaded, skipped, err := m.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Zero(t, skipped)
	assert.True(t, engine.Glows(20))
	assert.Equal(t, 6.0, engine.Settings().RemovalRadius)
}

func TestCustomLight_ReloadKeepsSettingsOnReadError(t *testing.T) {
	env := newCustomLightEnv(t)
	require.NoError(t, env.module.Enable())
	env.module.deps.ReloadConfig = func() error { return errors.New("unreadable") }
	env.cfg.Radius = 99

	_, _, err := env.module.Reload()
	assert.ErrorContains(t, err, "unreadable")
	assert.Equal(t, 10.0, env.engine.Settings().RemovalRadius)
}

func TestCustomLight_UnderManager(t *testing.T) {
	env := newCustomLightEnv(t)
	m := NewManager(Dependencies{Enabled: func(string) bool { return true }}, env.module)

	assert.Equal(t, 1, m.EnableAll())
	require.NoError(t, m.ReloadAll())
	assert.True(t, env.module.Active())

	m.DisableAll()
	assert.False(t, env.module.Active())
}

func TestSettings(t *testing.T) {
	cfg := config.LightConfig{
		Radius:             7.5,
		UpdateInterval:     5,
		RemoveAllOnUnequip: false,
		MaxMarkersPerActor: 2,
		SettleDelay:        3,
		HeadgearSlot:       5,
		VerticalOffset:     1,
	}

	assert.Equal(t, light.Settings{
		RemovalRadius:      7.5,
		UpdateInterval:     5,
		RemoveAllOnUnequip: false,
		MaxMarkersPerActor: 2,
		SettleDelay:        3,
		HeadgearSlot:       5,
		VerticalOffset:     1,
	}, Settings(cfg))
}
