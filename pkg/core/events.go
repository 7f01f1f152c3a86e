// pkg/core/events.go
package core

import "time"

// MarkerEventKind tells whether a marker was written or reverted.
type MarkerEventKind string

const (
	MarkerPlaced    MarkerEventKind = "placed"
	MarkerCleared   MarkerEventKind = "cleared"
	MarkerUntracked MarkerEventKind = "untracked"
)

// Reasons attached to marker events.
const (
	ReasonPlacement   = "placement"
	ReasonDistance    = "distance"
	ReasonCapacity    = "capacity"
	ReasonUnequip     = "unequip"
	ReasonFastPath    = "fast-path"
	ReasonDeparture   = "departure"
	ReasonWorldChange = "world-change"
	ReasonShutdown    = "shutdown"
)

// MarkerEvent is a single journal entry describing a marker mutation.
// MarkerUntracked means the location left tracking without a world write,
// because the cell no longer held a light.
type MarkerEvent struct {
	Time     time.Time       `json:"time"`
	Actor    ActorID         `json:"actor"`
	Location Location        `json:"location"`
	Level    Level           `json:"level"`
	Kind     MarkerEventKind `json:"kind"`
	Reason   string          `json:"reason"`
}
