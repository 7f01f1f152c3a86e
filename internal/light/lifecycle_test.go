package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/pkg/core"
)

func TestDeparted_PurgesMarkersAndState(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)
	f.join(t, "sam", at(50, 64, 0), glowHelmet)
	f.engine.Reconcile()

	f.sim.Leave("alex")
	require.NoError(t, f.engine.Departed("alex"))

	assert.False(t, f.tracker.Has("alex"))
	assert.Equal(t, core.UnobservedModel, f.tracker.LastModel("alex"))
	assert.Equal(t, map[core.Location]core.Level{cell(50, 66, 0): 12}, f.sim.Lights())
	assert.Equal(t, []string{core.ReasonDeparture, core.ReasonDeparture}, f.journal.reasons(core.MarkerCleared))

	// a delayed check scheduled afterwards is a safe no-op
	require.NoError(t, f.engine.ScheduleRecheck("alex"))
	f.sim.Tick()
	assert.False(t, f.tracker.Has("alex"))
}

func TestDeparted_UnknownActor(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.engine.Departed("ghost"))
	assert.Empty(t, f.journal.events)
}

func TestChangedWorld_PurgesMarkers(t *testing.T) {
	f := newFixture(t, func(s *Settings) { s.UpdateInterval = 100 })
	twoMarkers(t, f)

	require.NoError(t, f.sim.Move("alex", core.NewPosition("nether", 0, 64, 0)))
	require.NoError(t, f.engine.ChangedWorld("alex", "world", "nether"))

	assert.Empty(t, f.sim.Lights())
	assert.False(t, f.tracker.Has("alex"))
	assert.Contains(t, f.logs.String(), "Purged markers on world change")

	// next pass starts fresh in the new world
	f.engine.Reconcile()
	assert.Equal(t, []core.Location{{World: "nether", X: 0, Y: 66, Z: 0}}, f.tracker.Markers("alex"))
}

func TestChangedWorld_SkipsForeignContent(t *testing.T) {
	f := newFixture(t, nil)
	f.join(t, "alex", at(0, 64, 0), glowHelmet)
	f.engine.Reconcile()

	require.NoError(t, f.sim.SetCell(cell(0, 66, 0), core.Cell{Occupant: core.OccupantOther}))
	require.NoError(t, f.engine.ChangedWorld("alex", "world", "end"))

	c, _ := f.sim.Cell(cell(0, 66, 0))
	assert.Equal(t, core.OccupantOther, c.Occupant)
	assert.Equal(t, []string{core.ReasonWorldChange}, f.journal.reasons(core.MarkerUntracked))
}
