package core

import "time"

// Session identifies one run of the engine. Journal entries are grouped by session.
type Session struct {
	Key       string         `json:"key"`
	Server    string         `json:"server"`
	Version   string         `json:"version"`
	StartedAt time.Time      `json:"startedAt"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// NewSessionKey builds a key from the start time, unique per second.
func NewSessionKey(server string, start time.Time) string {
	if server == "" {
		server = "headlamp"
	}
	return server + "_" + start.UTC().Format("20060102_150405")
}
