package events

import "time"

// Payload types shared between the hub and the room synchronizer

// User is the identity attached to chat messages, actions and roster events
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// JoinRoomPayload announces presence after the transport connects. Admin
// observers send IsAdmin instead of a username.
type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"userId,omitempty"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

// ChatMessagePayload is sent by a client and reflected by the hub with a Seq
type ChatMessagePayload struct {
	RoomID    string    `json:"roomId,omitempty"`
	User      User      `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq,omitempty"`
}

// Action is a playback command relayed between clients
type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionSeek  Action = "seek"
	ActionSync  Action = "sync"
)

// Valid reports whether a is part of the wire contract
func (a Action) Valid() bool {
	switch a {
	case ActionPlay, ActionPause, ActionSeek, ActionSync:
		return true
	}
	return false
}

// ActionData carries the target position of seek and sync
type ActionData struct {
	Time float64 `json:"time"`
}

// MovieActionPayload is a playback action. Timestamp is unix milliseconds.
type MovieActionPayload struct {
	RoomID    string      `json:"roomId,omitempty"`
	Action    Action      `json:"action"`
	Data      *ActionData `json:"data,omitempty"`
	User      User        `json:"user"`
	Timestamp int64       `json:"timestamp"`
	Seq       uint64      `json:"seq,omitempty"`
}

// TargetTime returns the seek position, 0 when the action carries none
func (p MovieActionPayload) TargetTime() float64 {
	if p.Data == nil {
		return 0
	}
	return p.Data.Time
}

// UserJoinedPayload is broadcast when a participant joins the roster
type UserJoinedPayload struct {
	User User `json:"user"`
}

// UserLeftPayload is broadcast when a participant's last connection closes.
// The hub always fills every field; receivers must not rely on that.
type UserLeftPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Message  string `json:"message,omitempty"`
}

// DisconnectPayload carries the reason a channel dropped
type DisconnectPayload struct {
	Reason string `json:"reason"`
}

// ConnectErrorPayload carries a transport connect failure
type ConnectErrorPayload struct {
	Error string `json:"error"`
}

// JoinedMessage renders the roster banner for a join
func JoinedMessage(name string) string {
	return name + " joined the room"
}

// LeftMessage renders the roster banner for a leave
func LeftMessage(name string) string {
	return name + " left the room"
}
