package models

import "time"

// Movie represents a catalog entry that rooms are created for
type Movie struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description"`
	YoutubeID   string    `json:"youtubeId" yaml:"youtube_id"`
	DurationSec int       `json:"durationSec,omitempty" yaml:"duration_sec"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
}
