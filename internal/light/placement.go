package light

import (
	"github.com/ethria/headlamp/pkg/core"
)

// DesiredLocation is the cell a marker belongs in for an actor standing at pos.
func DesiredLocation(pos core.Position, verticalOffset int) core.Location {
	return pos.Cell().Offset(0, verticalOffset, 0)
}

// Placeable reports whether a marker may be written into c.
// Only empty cells and cells already holding a light qualify.
func Placeable(c core.Cell) bool {
	return c.Occupant == core.OccupantEmpty || c.Occupant == core.OccupantLight
}

// Distant returns the tracked locations that are in another world than
// desired or farther than radius from it, preserving order.
func Distant(tracked []core.Location, desired core.Location, radius float64) []core.Location {
	var out []core.Location
	for _, loc := range tracked {
		if loc.World != desired.World || loc.Distance(desired) > radius {
			out = append(out, loc)
		}
	}
	return out
}

// Overflow returns the oldest locations that must go so that at most max remain.
// tracked must be ordered oldest first.
func Overflow(tracked []core.Location, max int) []core.Location {
	if max < 0 {
		max = 0
	}
	if len(tracked) <= max {
		return nil
	}
	return tracked[:len(tracked)-max]
}
