// Package host describes the environment the light engine runs inside:
// the actor roster, the world cell grid and the cooperative tick scheduler.
package host

import "github.com/ethria/headlamp/pkg/core"

// Server enumerates connected actors.
type Server interface {
	// OnlineActors returns a snapshot of every connected actor.
	OnlineActors() []core.ActorSnapshot
	// Actor returns the current snapshot of one actor, false if it is not connected.
	Actor(id core.ActorID) (core.ActorSnapshot, bool)
}

// World reads and writes cells.
type World interface {
	Cell(loc core.Location) (core.Cell, error)
	SetCell(loc core.Location, cell core.Cell) error
}

// Task is a handle to scheduled work.
type Task interface {
	Cancel()
}

// Scheduler runs callbacks on the host's single main context.
// Delays and periods are in ticks.
type Scheduler interface {
	// RunTimer runs fn after delay ticks and then every period ticks until cancelled.
	RunTimer(delay, period uint64, fn func()) (Task, error)
	// RunLater runs fn once after delay ticks.
	RunLater(delay uint64, fn func()) (Task, error)
}

// Host is the full set of collaborators the engine needs.
type Host interface {
	Server
	World
	Scheduler
}
