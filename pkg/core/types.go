// pkg/core/types.go
package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ActorID identifies a connected actor.
type ActorID string

// ModelID is the custom model data value of a piece of headgear.
type ModelID int

// Sentinel model ids.
const (
	// NoModel means the actor wears nothing carrying model data.
	NoModel ModelID = -1
	// UnobservedModel is the edge-detection value before the first observation.
	UnobservedModel ModelID = -2
)

// Level is a light intensity in [MinLevel, MaxLevel].
type Level int

const (
	MinLevel Level = 0
	MaxLevel Level = 15
)

// Valid reports whether l is inside the intensity range.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Location is a discrete cell in a world. Equality is structural.
type Location struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
}

// Vec returns the cell origin as a vector.
func (l Location) Vec() mgl64.Vec3 {
	return mgl64.Vec3{float64(l.X), float64(l.Y), float64(l.Z)}
}

// Distance returns the straight-line distance between two cells.
// Cells in different worlds are infinitely far apart.
func (l Location) Distance(other Location) float64 {
	if l.World != other.World {
		return math.Inf(1)
	}
	return l.Vec().Sub(other.Vec()).Len()
}

// Offset returns the cell shifted by the given deltas.
func (l Location) Offset(dx, dy, dz int) Location {
	return Location{World: l.World, X: l.X + dx, Y: l.Y + dy, Z: l.Z + dz}
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d:%d", l.World, l.X, l.Y, l.Z)
}

// Position is a continuous point in a world.
type Position struct {
	World string     `json:"world"`
	Vec   mgl64.Vec3 `json:"vec"`
}

// NewPosition builds a Position from raw coordinates.
func NewPosition(world string, x, y, z float64) Position {
	return Position{World: world, Vec: mgl64.Vec3{x, y, z}}
}

// Cell snaps the position to the cell grid.
func (p Position) Cell() Location {
	return Location{
		World: p.World,
		X:     int(math.Floor(p.Vec.X())),
		Y:     int(math.Floor(p.Vec.Y())),
		Z:     int(math.Floor(p.Vec.Z())),
	}
}

// Key derives the coarse movement key "world:x:y:z" from the cell.
func (p Position) Key() string {
	return p.Cell().String()
}

// Occupant is the kind of content in a world cell.
type Occupant int

const (
	OccupantEmpty Occupant = iota
	OccupantLight
	OccupantOther
)

func (o Occupant) String() string {
	switch o {
	case OccupantEmpty:
		return "empty"
	case OccupantLight:
		return "light"
	default:
		return "other"
	}
}

// Cell is the observable content of a world cell.
// Level is only meaningful when Occupant is OccupantLight.
type Cell struct {
	Occupant Occupant
	Level    Level
}

// ActorSnapshot is what the host reports about a connected actor at one point in time.
type ActorSnapshot struct {
	ID       ActorID
	Name     string
	Headgear ModelID
	Position Position
}
