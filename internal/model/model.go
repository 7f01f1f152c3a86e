package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&MarkerEvent{},
}

// Session is one engine run.
type Session struct {
	ID         uint           `json:"id" gorm:"primarykey;autoIncrement"`
	SessionKey string         `json:"sessionKey" gorm:"size:128;uniqueIndex"`
	Server     string         `json:"server" gorm:"size:64"`
	Version    string         `json:"version" gorm:"size:32"`
	StartedAt  time.Time      `json:"startedAt"`
	EndedAt    sql.NullTime   `json:"endedAt"`
	Settings   datatypes.JSON `json:"settings"`
}

func (*Session) TableName() string {
	return "sessions"
}

// MarkerEvent is one journal row.
type MarkerEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_marker_event_session"`
	Time      time.Time `json:"time" gorm:"index:idx_marker_event_time"`
	Actor     string    `json:"actor" gorm:"size:64;index:idx_marker_event_actor"`
	World     string    `json:"world" gorm:"size:64"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Z         int       `json:"z"`
	Level     int       `json:"level"`
	Kind      string    `json:"kind" gorm:"size:16"`
	Reason    string    `json:"reason" gorm:"size:32"`
}

func (*MarkerEvent) TableName() string {
	return "marker_events"
}
