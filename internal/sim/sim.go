// Package sim is an in-memory host: a cell grid, a roster of actors and a
// cooperative tick scheduler. Nothing runs until Tick is called, and every
// callback runs on the goroutine that calls Tick.
package sim

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethria/headlamp/pkg/core"
	"github.com/ethria/headlamp/pkg/host"
)

// ErrSchedulerDown is returned by the scheduler while scheduling is disabled.
var ErrSchedulerDown = errors.New("sim: scheduler is not accepting tasks")

type actor struct {
	snap  core.ActorSnapshot
	order uint64
}

type task struct {
	due       uint64
	period    uint64
	seq       uint64
	fn        func()
	cancelled bool
	sim       *Sim
}

func (t *task) Cancel() {
	t.sim.mu.Lock()
	defer t.sim.mu.Unlock()
	t.cancelled = true
}

// Sim implements host.Host.
type Sim struct {
	mu      sync.Mutex
	tick    uint64
	seq     uint64
	joins   uint64
	actors  map[core.ActorID]*actor
	cells   map[core.Location]core.Cell
	tasks   []*task
	faults  map[core.Location]error
	panics  map[core.Location]string
	noSched bool
}

var _ host.Host = (*Sim)(nil)

// New creates an empty world at tick 0.
func New() *Sim {
	return &Sim{
		actors: make(map[core.ActorID]*actor),
		cells:  make(map[core.Location]core.Cell),
		faults: make(map[core.Location]error),
		panics: make(map[core.Location]string),
	}
}

// Now returns the current tick.
func (s *Sim) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Join connects an actor. Joining an existing id replaces its snapshot.
func (s *Sim) Join(id core.ActorID, name string, pos core.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.actors[id]; ok {
		a.snap = core.ActorSnapshot{ID: id, Name: name, Headgear: core.NoModel, Position: pos}
		return
	}
	s.joins++
	s.actors[id] = &actor{
		snap:  core.ActorSnapshot{ID: id, Name: name, Headgear: core.NoModel, Position: pos},
		order: s.joins,
	}
}

// Leave disconnects an actor.
func (s *Sim) Leave(id core.ActorID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[id]; !ok {
		return false
	}
	delete(s.actors, id)
	return true
}

// Move sets an actor's position.
func (s *Sim) Move(id core.ActorID, pos core.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return fmt.Errorf("sim: unknown actor %s", id)
	}
	a.snap.Position = pos
	return nil
}

// Equip sets the model id of the actor's headgear. NoModel takes it off.
func (s *Sim) Equip(id core.ActorID, model core.ModelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return fmt.Errorf("sim: unknown actor %s", id)
	}
	a.snap.Headgear = model
	return nil
}

// OnlineActors returns connected actors in join order.
func (s *Sim) OnlineActors() []core.ActorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*actor, 0, len(s.actors))
	for _, a := range s.actors {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].order < list[j].order })

	out := make([]core.ActorSnapshot, len(list))
	for i, a := range list {
		out[i] = a.snap
	}
	return out
}

// Actor returns one actor's snapshot.
func (s *Sim) Actor(id core.ActorID) (core.ActorSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return core.ActorSnapshot{}, false
	}
	return a.snap, true
}

// Cell reads a cell. Unset cells are empty.
func (s *Sim) Cell(loc core.Location) (core.Cell, error) {
	if err := s.fault(loc); err != nil {
		return core.Cell{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells[loc], nil
}

// SetCell writes a cell.
func (s *Sim) SetCell(loc core.Location, c core.Cell) error {
	if err := s.fault(loc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Occupant == core.OccupantEmpty {
		delete(s.cells, loc)
		return nil
	}
	s.cells[loc] = c
	return nil
}

func (s *Sim) fault(loc core.Location) error {
	s.mu.Lock()
	msg, boom := s.panics[loc]
	err := s.faults[loc]
	s.mu.Unlock()
	if boom {
		panic(msg)
	}
	return err
}

// Lights returns every cell currently holding a light.
func (s *Sim) Lights() map[core.Location]core.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.Location]core.Level)
	for loc, c := range s.cells {
		if c.Occupant == core.OccupantLight {
			out[loc] = c.Level
		}
	}
	return out
}

// Fail makes reads and writes of loc return err. A nil err removes the fault.
func (s *Sim) Fail(loc core.Location, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, loc)
		return
	}
	s.faults[loc] = err
}

// Panic makes reads and writes of loc panic with msg.
func (s *Sim) Panic(loc core.Location, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[loc] = msg
}

// SetSchedulerDown makes RunTimer and RunLater fail while down is true.
func (s *Sim) SetSchedulerDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noSched = down
}

// RunTimer schedules fn at now+delay and then every period ticks.
func (s *Sim) RunTimer(delay, period uint64, fn func()) (host.Task, error) {
	if period == 0 {
		return nil, errors.New("sim: period must be positive")
	}
	return s.schedule(delay, period, fn)
}

// RunLater schedules fn once at now+delay.
func (s *Sim) RunLater(delay uint64, fn func()) (host.Task, error) {
	return s.schedule(delay, 0, fn)
}

func (s *Sim) schedule(delay, period uint64, fn func()) (host.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noSched {
		return nil, ErrSchedulerDown
	}
	s.seq++
	t := &task{due: s.tick + delay, period: period, seq: s.seq, fn: fn, sim: s}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Pending returns the number of live scheduled tasks.
func (s *Sim) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Tick advances one tick and runs every task that is due, ordered by due
// tick then scheduling order. Tasks scheduled while ticking wait for the next tick.
func (s *Sim) Tick() {
	s.mu.Lock()
	s.tick++
	now := s.tick

	var due []*task
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if t.cancelled {
			continue
		}
		live = append(live, t)
		if t.due <= now {
			due = append(due, t)
		}
	}
	s.tasks = live
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	s.mu.Unlock()

	for _, t := range due {
		s.mu.Lock()
		if t.cancelled {
			s.mu.Unlock()
			continue
		}
		if t.period == 0 {
			t.cancelled = true
		} else {
			t.due = now + t.period
		}
		fn := t.fn
		s.mu.Unlock()

		fn()
	}
}

// Advance runs n ticks.
func (s *Sim) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}
