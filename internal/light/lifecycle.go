package light

import (
	"github.com/ethria/headlamp/pkg/core"
)

// Departed purges everything known about an actor that left.
func (e *Engine) Departed(id core.ActorID) error {
	locs := e.tracker.Purge(id)
	e.logger.Debug("Purged departed actor", "actor", id, "markers", len(locs))
	return e.clearPurged(id, locs, core.ReasonDeparture, nil)
}

// ChangedWorld purges an actor's markers when it moves to another world.
func (e *Engine) ChangedWorld(id core.ActorID, from, to string) error {
	locs := e.tracker.Purge(id)
	if len(locs) > 0 {
		e.logger.Info("Purged markers on world change", "actor", id, "from", from, "to", to, "markers", len(locs))
	}
	return e.clearPurged(id, locs, core.ReasonWorldChange, nil)
}
