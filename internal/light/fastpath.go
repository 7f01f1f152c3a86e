package light

import (
	"errors"

	"github.com/ethria/headlamp/pkg/core"
)

// ScheduleRecheck re-evaluates the actor's headgear after the settle delay.
// The host applies inventory changes after the event fires, so reading the
// equipment right away would still see the old item.
func (e *Engine) ScheduleRecheck(id core.ActorID) error {
	delay := e.Settings().SettleDelay
	_, err := e.host.RunLater(delay, func() {
		if err := e.isolate(id, func() error { return e.Recheck(id) }); err != nil {
			e.logger.Error("Failed to re-evaluate headgear", "actor", id, "error", err)
		}
	})
	return err
}

// Recheck compares the actor's current headgear to the last observed model
// and purges markers when the new headgear no longer glows. It never places.
// An actor that has left in the meantime is ignored.
func (e *Engine) Recheck(id core.ActorID) error {
	snap, ok := e.host.Actor(id)
	if !ok {
		e.logger.Debug("Skipping headgear check for departed actor", "actor", id)
		return nil
	}

	if snap.Headgear == e.tracker.LastModel(id) {
		return nil
	}
	e.tracker.SetLastModel(id, snap.Headgear)

	if _, glows := e.registry.Lookup(snap.Headgear); glows || !e.Settings().RemoveAllOnUnequip {
		return nil
	}

	var errs []error
	for _, loc := range e.tracker.Markers(id) {
		if err := e.clear(id, loc, core.ReasonFastPath, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Glows reports whether the model id has a registry entry.
func (e *Engine) Glows(model core.ModelID) bool {
	_, ok := e.registry.Lookup(model)
	return ok
}

// HeadgearClick handles an inventory click. It schedules a re-check when the
// click targets the helmet slot of the actor's own inventory, or when a
// glowing item is shift-clicked (which can move it into the helmet slot).
func (e *Engine) HeadgearClick(id core.ActorID, slot int, ownInventory, shift bool, item core.ModelID) error {
	s := e.Settings()
	if (ownInventory && slot == s.HeadgearSlot) || (shift && e.Glows(item)) {
		return e.ScheduleRecheck(id)
	}
	return nil
}

// HeadgearDrag handles a drag whose raw slots may include the helmet slot.
func (e *Engine) HeadgearDrag(id core.ActorID, rawSlots []int) error {
	s := e.Settings()
	for _, slot := range rawSlots {
		if slot == s.HeadgearSlot {
			return e.ScheduleRecheck(id)
		}
	}
	return nil
}

// ItemGone handles a dropped or destroyed item. Only a glowing item matching
// the actor's last observed headgear can change the light.
func (e *Engine) ItemGone(id core.ActorID, item core.ModelID) error {
	if !e.Glows(item) || item != e.tracker.LastModel(id) {
		return nil
	}
	return e.ScheduleRecheck(id)
}
