package handlers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/internal/command"
	"github.com/ethria/headlamp/internal/dispatcher"
	"github.com/ethria/headlamp/internal/light"
	"github.com/ethria/headlamp/internal/registry"
	"github.com/ethria/headlamp/internal/sim"
	"github.com/ethria/headlamp/internal/tracker"
	"github.com/ethria/headlamp/pkg/core"
	"github.com/ethria/headlamp/pkg/host"
)

const glowHelmet core.ModelID = 10

type fakeReloader struct {
	err error
}

func (r *fakeReloader) Reload() (int, int, error) { return 2, 1, r.err }

type keyMessages struct{}

func (keyMessages) Message(key string, _ ...any) string { return key }

type testEnv struct {
	sim     *sim.Sim
	engine  *light.Engine
	tracker *tracker.Tracker
	disp    *dispatcher.Dispatcher
	bridge  *host.Bridge
	svc     *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := sim.New()
	reg := registry.New(nil)
	reg.Load(map[string]any{"10": 12})
	tr := tracker.New()

	engine, err := light.New(light.Dependencies{Host: s, Registry: reg, Tracker: tr}, light.DefaultSettings())
	require.NoError(t, err)

	d, err := dispatcher.New(nil)
	require.NoError(t, err)

	cmds := command.New(command.Dependencies{Messages: keyMessages{}}, nil)
	svc := NewService(Dependencies{Engine: engine, Light: &fakeReloader{}, Commands: cmds})
	require.NoError(t, svc.RegisterEvents(d))
	require.NoError(t, svc.RegisterCommands(d))

	return &testEnv{sim: s, engine: engine, tracker: tr, disp: d, bridge: host.NewBridge(d), svc: svc}
}

// lit places a tracked marker for alex wearing the glowing helmet.
func (env *testEnv) lit(t *testing.T) {
	t.Helper()
	env.sim.Join("alex", "Alex", core.NewPosition("world", 0.5, 64, 0.5))
	require.NoError(t, env.sim.Equip("alex", glowHelmet))
	env.engine.Reconcile()
	require.Equal(t, 1, env.tracker.MarkerLen("alex"))
}

func TestRegisterEvents_RequiresEngine(t *testing.T) {
	d, err := dispatcher.New(nil)
	require.NoError(t, err)

	assert.Error(t, NewService(Dependencies{}).RegisterEvents(d))
	assert.Error(t, NewService(Dependencies{}).RegisterCommands(d))
}

func TestRegisterAndUnregisterEvents(t *testing.T) {
	env := newTestEnv(t)
	for _, cmd := range EventCommands {
		assert.True(t, env.disp.HasHandler(cmd), cmd)
	}

	env.svc.UnregisterEvents(env.disp)

	for _, cmd := range EventCommands {
		assert.False(t, env.disp.HasHandler(cmd), cmd)
	}
	assert.True(t, env.disp.HasHandler(CmdCommand), "commands stay registered")
	assert.Equal(t, `["error", "no handler registered"]`, env.bridge.Call(`:ACTOR:QUIT:|"alex"`))
}

func TestInventoryEventsScheduleRecheck(t *testing.T) {
	tests := []struct {
		name      string
		call      string
		scheduled bool
	}{
		{"helmet slot click", `:INVENTORY:CLICK:|"alex"|39.00|"PLAYER"|false|-1`, true},
		{"chest click", `:INVENTORY:CLICK:|"alex"|39|"CHEST"|false|-1`, false},
		{"shift click glowing", `:INVENTORY:CLICK:|"alex"|3|"CHEST"|true|10`, true},
		{"drag over helmet", `:INVENTORY:DRAG:|"alex"|"[12,39]"`, true},
		{"drag elsewhere", `:INVENTORY:DRAG:|"alex"|12|13`, false},
		{"drop worn item", `:ITEM:DROP:|"alex"|10`, true},
		{"break other item", `:ITEM:BREAK:|"alex"|99`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.lit(t)

			assert.Equal(t, `["ok"]`, env.bridge.Call(tt.call))
			if tt.scheduled {
				assert.Equal(t, 1, env.sim.Pending())
			} else {
				assert.Equal(t, 0, env.sim.Pending())
			}
		})
	}
}

func TestInventoryClick_BadArgs(t *testing.T) {
	env := newTestEnv(t)

	resp := env.bridge.Call(`:INVENTORY:CLICK:|"alex"`)
	assert.Contains(t, resp, `["error",`)
}

func TestUnequipThroughBridge(t *testing.T) {
	env := newTestEnv(t)
	env.lit(t)

	require.NoError(t, env.sim.Equip("alex", core.NoModel))
	require.Equal(t, `["ok"]`, env.bridge.Call(`:INVENTORY:CLICK:|"alex"|39|"PLAYER"|false`))
	env.sim.Tick()

	assert.Zero(t, env.tracker.MarkerLen("alex"))
	assert.Empty(t, env.sim.Lights())
}

func TestQuitAndWorldChange(t *testing.T) {
	env := newTestEnv(t)
	env.lit(t)

	assert.Equal(t, `["ok"]`, env.bridge.Call(`:ACTOR:WORLD:|"alex"|"world"|"world_nether"`))
	assert.Zero(t, env.tracker.MarkerLen("alex"))
	assert.Empty(t, env.sim.Lights())

	env.engine.Reconcile()
	require.Equal(t, 1, env.tracker.MarkerLen("alex"))

	env.sim.Leave("alex")
	assert.Equal(t, `["ok"]`, env.bridge.Call(`:ACTOR:QUIT:|"alex"`))
	assert.False(t, env.tracker.Has("alex"))
}

func TestLightReloadAndCount(t *testing.T) {
	env := newTestEnv(t)
	env.lit(t)

	assert.Equal(t, `["ok", {"loaded":2,"skipped":1}]`, env.bridge.Call(CmdLightReload))

	resp := env.bridge.Call(CmdLightCount)
	assert.Equal(t, `["ok", {"running":false,"markers":1,"actors":1,"glowingItems":1}]`, resp)
}

func TestLightReload_Error(t *testing.T) {
	env := newTestEnv(t)
	env.svc.deps.Light = &fakeReloader{err: errors.New("config not loaded")}

	assert.Equal(t, `["error", "config not loaded"]`, env.bridge.Call(CmdLightReload))
}

func TestCommand(t *testing.T) {
	env := newTestEnv(t)

	resp := env.bridge.Call(`:COMMAND:|"Alex"|"headlamp.admin"|"headlamp"|"help"`)
	require.Contains(t, resp, `["ok", `)

	var got CommandResult
	require.NoError(t, json.Unmarshal([]byte(resp[len(`["ok", `):len(resp)-1]), &got))
	assert.True(t, got.Handled)
	assert.Equal(t, []string{"main.help-header", "main.help-reload", "main.help-customlight", "main.help-usage"}, got.Messages)
}

func TestCommand_ForeignLabel(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, `["ok", {"handled":false,"messages":[]}]`, env.bridge.Call(`:COMMAND:|"Alex"|""|"spawn"`))
}

func TestCommandComplete(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, `["ok", ["reload"]]`, env.bridge.Call(`:COMMAND:COMPLETE:|"Alex"|"headlamp.admin"|"headlamp"|"re"`))
}
