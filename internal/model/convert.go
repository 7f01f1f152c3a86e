package model

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/ethria/headlamp/pkg/core"
)

// CoreToMarkerEvent converts a journal entry to its row. SessionID is set by the writer.
func CoreToMarkerEvent(e core.MarkerEvent) MarkerEvent {
	return MarkerEvent{
		Time:   e.Time,
		Actor:  string(e.Actor),
		World:  e.Location.World,
		X:      e.Location.X,
		Y:      e.Location.Y,
		Z:      e.Location.Z,
		Level:  int(e.Level),
		Kind:   string(e.Kind),
		Reason: e.Reason,
	}
}

// ToCore converts a row back to a journal entry.
func (m MarkerEvent) ToCore() core.MarkerEvent {
	return core.MarkerEvent{
		Time:     m.Time,
		Actor:    core.ActorID(m.Actor),
		Location: core.Location{World: m.World, X: m.X, Y: m.Y, Z: m.Z},
		Level:    core.Level(m.Level),
		Kind:     core.MarkerEventKind(m.Kind),
		Reason:   m.Reason,
	}
}

// CoreToSession converts a session. Unencodable settings are dropped.
func CoreToSession(s core.Session) Session {
	out := Session{
		SessionKey: s.Key,
		Server:     s.Server,
		Version:    s.Version,
		StartedAt:  s.StartedAt,
	}
	if len(s.Settings) > 0 {
		if raw, err := json.Marshal(s.Settings); err == nil {
			out.Settings = datatypes.JSON(raw)
		}
	}
	return out
}
