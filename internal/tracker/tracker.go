// Package tracker holds per-actor edge-detection state and the ordered set
// of marker locations each actor currently owns.
package tracker

import (
	"sync"

	"github.com/ethria/headlamp/internal/queue"
	"github.com/ethria/headlamp/pkg/core"
)

// Record is a read-only view of one actor's state.
type Record struct {
	LastModel       core.ModelID
	LastPositionKey string
	Markers         []core.Location // oldest first
}

type record struct {
	lastModel  core.ModelID
	lastPosKey string
	markers    *queue.OrderedSet[core.Location]
}

func newRecord() *record {
	return &record{
		lastModel: core.UnobservedModel,
		markers:   queue.NewOrderedSet[core.Location](),
	}
}

func (r *record) view() Record {
	return Record{
		LastModel:       r.lastModel,
		LastPositionKey: r.lastPosKey,
		Markers:         r.markers.Items(),
	}
}

// Tracker is the only mutator of actor state. The engine calls it from the
// host's main context; the lock exists for diagnostic readers on other goroutines.
type Tracker struct {
	mu     sync.RWMutex
	actors map[core.ActorID]*record
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		actors: make(map[core.ActorID]*record),
	}
}

// must be called with mu held for writing
func (t *Tracker) ensure(id core.ActorID) *record {
	r, ok := t.actors[id]
	if !ok {
		r = newRecord()
		t.actors[id] = r
	}
	return r
}

// Get returns the actor's record, creating a default one if absent.
func (t *Tracker) Get(id core.ActorID) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensure(id).view()
}

// Has reports whether a record exists for id.
func (t *Tracker) Has(id core.ActorID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.actors[id]
	return ok
}

// RecordObservation stores the latest model id and position key.
func (t *Tracker) RecordObservation(id core.ActorID, model core.ModelID, posKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensure(id)
	r.lastModel = model
	r.lastPosKey = posKey
}

// LastModel returns the last observed model id, UnobservedModel if none.
func (t *Tracker) LastModel(id core.ActorID) core.ModelID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.actors[id]; ok {
		return r.lastModel
	}
	return core.UnobservedModel
}

// SetLastModel updates only the model edge-detection field.
func (t *Tracker) SetLastModel(id core.ActorID, model core.ModelID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensure(id).lastModel = model
}

// Track adds loc to the actor's markers. Returns false if it was already tracked.
func (t *Tracker) Track(id core.ActorID, loc core.Location) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensure(id).markers.Add(loc)
}

// Untrack removes loc from the actor's markers.
func (t *Tracker) Untrack(id core.ActorID, loc core.Location) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.actors[id]
	if !ok {
		return false
	}
	return r.markers.Remove(loc)
}

// Markers returns the actor's tracked locations, oldest first.
func (t *Tracker) Markers(id core.ActorID) []core.Location {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.actors[id]; ok {
		return r.markers.Items()
	}
	return nil
}

// MarkerLen returns how many markers the actor owns.
func (t *Tracker) MarkerLen(id core.ActorID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.actors[id]; ok {
		return r.markers.Len()
	}
	return 0
}

// Purge deletes the actor's record and returns the markers it tracked.
func (t *Tracker) Purge(id core.ActorID) []core.Location {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.actors[id]
	if !ok {
		return nil
	}
	delete(t.actors, id)
	return r.markers.Drain()
}

// PurgeAll deletes every record and returns each actor's markers.
func (t *Tracker) PurgeAll() map[core.ActorID][]core.Location {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[core.ActorID][]core.Location, len(t.actors))
	for id, r := range t.actors {
		out[id] = r.markers.Drain()
	}
	t.actors = make(map[core.ActorID]*record)
	return out
}

// Actors returns the ids of every tracked actor.
func (t *Tracker) Actors() []core.ActorID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.ActorID, 0, len(t.actors))
	for id := range t.actors {
		out = append(out, id)
	}
	return out
}

// MarkerCount returns the total number of tracked markers across actors.
func (t *Tracker) MarkerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, r := range t.actors {
		n += r.markers.Len()
	}
	return n
}
