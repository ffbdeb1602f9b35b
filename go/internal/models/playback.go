package models

import "time"

// PlaybackState is a client's local projection of the shared playback
type PlaybackState struct {
	IsPlaying          bool      `json:"isPlaying"`
	PositionSeconds    float64   `json:"positionSeconds"`
	DurationSeconds    float64   `json:"durationSeconds"`
	LastRemoteActionAt time.Time `json:"lastRemoteActionAt"`
}
