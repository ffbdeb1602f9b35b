package models

import "time"

// Room represents the room payload exchanged with the REST collaborator
type Room struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Movie             Movie         `json:"movie"`
	Host              *Participant  `json:"host,omitempty"`
	Users             []Participant `json:"users"`
	PasswordProtected bool          `json:"passwordProtected"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// RoomSummary is the listing entry shown by the monitoring dashboard
type RoomSummary struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	MovieTitle        string    `json:"movieTitle"`
	HostName          string    `json:"hostName"`
	ParticipantCount  int       `json:"participantCount"`
	IsPlaying         bool      `json:"isPlaying"`
	PositionSeconds   float64   `json:"positionSeconds"`
	PasswordProtected bool      `json:"passwordProtected"`
	CreatedAt         time.Time `json:"createdAt"`
}

// JoinRequest is the guest join form
type JoinRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// JoinResult is returned by a successful guest join
type JoinResult struct {
	Room Room `json:"room"`
	User User `json:"user"`
}

// CreateRoomRequest represents the data needed to open a new room
type CreateRoomRequest struct {
	MovieID  string `json:"movieId"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	HostName string `json:"hostName,omitempty"`
}
