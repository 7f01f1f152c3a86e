package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/pkg/core"
)

// twoMarkers leaves alex with two tracked markers while the periodic pass is far away.
func twoMarkers(t *testing.T, f *fixture) {
	t.Helper()
	f.join(t, "alex", at(0, 64, 0), glowHelmet)
	require.NoError(t, f.engine.Start())
	f.sim.Tick()
	f.walk(t, "alex", at(3, 64, 0))
	require.Len(t, f.tracker.Markers("alex"), 2)
}

func TestFastPath_UnequipPurgesBeforeNextPass(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)
	passes := len(f.passes.passes)

	require.NoError(t, f.sim.Equip("alex", core.NoModel))
	require.NoError(t, f.engine.HeadgearClick("alex", 39, true, false, core.NoModel))

	assert.Len(t, f.tracker.Markers("alex"), 2, "nothing happens before the settle delay")

	f.sim.Tick()

	assert.Empty(t, f.tracker.Markers("alex"))
	assert.Empty(t, f.sim.Lights())
	assert.Equal(t, passes, len(f.passes.passes), "no reconciliation pass ran")
	assert.Equal(t, core.NoModel, f.tracker.LastModel("alex"))
	assert.Equal(t, []string{core.ReasonFastPath, core.ReasonFastPath}, f.journal.reasons(core.MarkerCleared))
}

func TestFastPath_NoPurgeWhenDisabled(t *testing.T) {
	f := newFixture(t, func(s *Settings) {
		s.UpdateInterval = 100
		s.RemoveAllOnUnequip = false
	})
	twoMarkers(t, f)

	require.NoError(t, f.sim.Equip("alex", core.NoModel))
	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.sim.Tick()

	assert.Len(t, f.tracker.Markers("alex"), 2)
	assert.Equal(t, core.NoModel, f.tracker.LastModel("alex"), "edge state still updated")
}

func TestFastPath_NeverPlaces(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	f.join(t, "alex", at(0, 64, 0), core.NoModel)
	require.NoError(t, f.engine.Start())
	f.sim.Tick()

	require.NoError(t, f.sim.Equip("alex", glowHelmet))
	require.NoError(t, f.engine.HeadgearClick("alex", 39, true, false, glowHelmet))
	f.sim.Tick()

	assert.Empty(t, f.sim.Lights())
	assert.Equal(t, glowHelmet, f.tracker.LastModel("alex"))
}

func TestFastPath_SwapToOtherGlowingItemKeepsMarkers(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)

	require.NoError(t, f.sim.Equip("alex", dimHelmet))
	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.sim.Tick()

	assert.Len(t, f.tracker.Markers("alex"), 2)
	assert.Equal(t, dimHelmet, f.tracker.LastModel("alex"))
}

func TestFastPath_UnchangedHeadgearIsNoop(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)

	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.sim.Tick()

	assert.Len(t, f.tracker.Markers("alex"), 2)
	assert.Empty(t, f.journal.reasons(core.MarkerCleared))
}

func TestFastPath_DepartedActorIsNoop(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)

	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.sim.Leave("alex")
	require.NoError(t, f.engine.Departed("alex"))

	f.sim.Tick()

	assert.False(t, f.tracker.Has("alex"), "late check must not recreate state")
	assert.Contains(t, f.logs.String(), "departed actor")
}

func TestFastPath_SurvivesEngineStop(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)

	require.NoError(t, f.sim.Equip("alex", core.NoModel))
	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.engine.Stop()
	f.sim.Tick()

	assert.Empty(t, f.tracker.Markers("alex"))
}

func TestFastPath_ThenPassConverges(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 1 })
	twoMarkers(t, f)

	// pass and delayed check land on the same tick, in either order the result is the same
	require.NoError(t, f.sim.Equip("alex", core.NoModel))
	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.sim.Advance(2)

	assert.Empty(t, f.tracker.Markers("alex"))
	assert.Empty(t, f.sim.Lights())
}

func TestHeadgearClick(t *testing.T) {
	tests := []struct {
		name      string
		slot      int
		own       bool
		shift     bool
		item      core.ModelID
		scheduled bool
	}{
		{"helmet slot in own inventory", 39, true, false, core.NoModel, true},
		{"helmet slot number in a chest", 39, false, false, core.NoModel, false},
		{"other slot", 12, true, false, plainHat, false},
		{"shift click glowing item", 5, false, true, glowHelmet, true},
		{"shift click plain item", 5, true, true, plainHat, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.join(t, "alex", at(0, 64, 0), core.NoModel)

			require.NoError(t, f.engine.HeadgearClick("alex", tt.slot, tt.own, tt.shift, tt.item))

			if tt.scheduled {
				assert.Equal(t, 1, f.sim.Pending())
			} else {
				assert.Equal(t, 0, f.sim.Pending())
			}
		})
	}
}

func TestHeadgearClick_CustomSlot(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.HeadgearSlot = 5 })

	require.NoError(t, f.engine.HeadgearClick("alex", 5, true, false, core.NoModel))
	assert.Equal(t, 1, f.sim.Pending())
}

func TestHeadgearDrag(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.engine.HeadgearDrag("alex", []int{10, 11}))
	assert.Equal(t, 0, f.sim.Pending())

	require.NoError(t, f.engine.HeadgearDrag("alex", []int{38, 39, 40}))
	assert.Equal(t, 1, f.sim.Pending())
}

func TestItemGone(t *testing.T) {
	f := newFixture(t, nil)
	f.join(t, "alex", at(0, 64, 0), glowHelmet)
	f.engine.Reconcile()

	require.NoError(t, f.engine.ItemGone("alex", plainHat))
	assert.Equal(t, 0, f.sim.Pending(), "item does not glow")

	require.NoError(t, f.engine.ItemGone("alex", dimHelmet))
	assert.Equal(t, 0, f.sim.Pending(), "glows but is not what alex wears")

	require.NoError(t, f.engine.ItemGone("alex", glowHelmet))
	assert.Equal(t, 1, f.sim.Pending())
}

func TestScheduleRecheck_SchedulerDown(t *testing.T) {
	f := newFixture(t, nil)
	f.sim.SetSchedulerDown(true)

	assert.Error(t, f.engine.ScheduleRecheck("alex"))
}

func TestRecheck_PanicIsContained(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)

	f.sim.Panic(cell(0, 66, 0), "boom")
	require.NoError(t, f.sim.Equip("alex", core.NoModel))
	require.NoError(t, f.engine.ScheduleRecheck("alex"))

	assert.NotPanics(t, func() { f.sim.Tick() })
	assert.Contains(t, f.logs.String(), "Failed to re-evaluate headgear")
}
