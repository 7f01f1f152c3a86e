package main

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cast"

	"github.com/ethria/headlamp/internal/config"
	"github.com/ethria/headlamp/pkg/core"
)

// walkStep is how far a scripted actor moves each tick, in cells.
const walkStep = 0.25

// walker is a scripted actor walking along +x.
type walker struct {
	id    core.ActorID
	pos   core.Position
	model core.ModelID
	// unequipAt and quitAt are ticks, zero means never.
	unequipAt uint64
	quitAt    uint64
	gone      bool
}

// scenario drives walkers through the world and the host bridge.
type scenario struct {
	app     *app
	walkers []*walker
}

// glowingModel returns the lowest configured glowing model id.
func glowingModel() (core.ModelID, error) {
	var ids []int
	for key := range config.GetLightConfig().GlowingItems {
		id, err := cast.ToIntE(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return core.NoModel, fmt.Errorf("light.glowingItems is empty")
	}
	sort.Ints(ids)
	return core.ModelID(ids[0]), nil
}

// newScenario joins n walkers spaced 16 cells apart. The last walker
// unequips after ticks/2 and the second to last quits after 3*ticks/4.
func newScenario(a *app, n int, ticks uint64) (*scenario, error) {
	model, err := glowingModel()
	if err != nil {
		return nil, err
	}

	s := &scenario{app: a}
	for i := 0; i < n; i++ {
		w := &walker{
			id:    core.ActorID(fmt.Sprintf("walker-%d", i+1)),
			pos:   core.NewPosition("world", float64(i*16)+0.5, 64, 0.5),
			model: model,
		}
		a.world.Join(w.id, string(w.id), w.pos)
		if err := a.world.Equip(w.id, w.model); err != nil {
			return nil, err
		}
		s.walkers = append(s.walkers, w)
	}
	if n > 0 && ticks > 1 {
		s.walkers[n-1].unequipAt = ticks / 2
	}
	if n > 1 && ticks > 3 {
		s.walkers[n-2].quitAt = ticks * 3 / 4
	}
	return s, nil
}

// step moves every walker, fires scripted events and advances the world one tick.
func (s *scenario) step() {
	now := s.app.world.Now() + 1
	for _, w := range s.walkers {
		if w.gone {
			continue
		}
		w.pos = core.Position{World: w.pos.World, Vec: w.pos.Vec.Add(mgl64.Vec3{walkStep, 0, 0})}
		_ = s.app.world.Move(w.id, w.pos)

		switch now {
		case w.unequipAt:
			_ = s.app.world.Equip(w.id, core.NoModel)
			s.call(fmt.Sprintf(`:INVENTORY:CLICK:|%q|39|"PLAYER"|false`, w.id))
		case w.quitAt:
			s.app.world.Leave(w.id)
			s.call(fmt.Sprintf(`:ACTOR:QUIT:|%q`, w.id))
			w.gone = true
		}
	}
	s.app.world.Tick()
}

func (s *scenario) call(input string) {
	resp := s.app.bridge.Call(input)
	s.app.logger.Debug("Scripted host call", "input", input, "response", resp)
}

// command runs a chat command as the console and returns the bridge reply.
func (s *scenario) command(args ...string) string {
	input := `:COMMAND:|"console"|"headlamp.admin"|"headlamp"`
	for _, arg := range args {
		input += "|" + fmt.Sprintf("%q", arg)
	}
	return s.app.bridge.Call(input)
}
