package models

// RoomPresence is the live state of a room as seen by the hub
type RoomPresence struct {
	Connections     int           `json:"connections"`
	Participants    []Participant `json:"participants"`
	IsPlaying       bool          `json:"isPlaying"`
	PositionSeconds float64       `json:"positionSeconds"`
}
