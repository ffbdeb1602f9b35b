package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity is a relayed room event as recorded on the activity feed
type Activity struct {
	ID        uuid.UUID       `json:"eventId"`
	RoomID    string          `json:"roomId"`
	Event     Name            `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewActivity records env as having happened in roomID at ts
func NewActivity(roomID string, env Envelope, ts time.Time) Activity {
	return Activity{
		ID:        uuid.New(),
		RoomID:    roomID,
		Event:     env.Event,
		Timestamp: ts.UTC(),
		Payload:   env.Data,
	}
}

// Envelope rebuilds the channel frame the activity was recorded from
func (a Activity) Envelope() Envelope {
	return Envelope{Event: a.Event, Data: a.Payload}
}

// Subject returns the feed subject for the activity under prefix
func (a Activity) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, a.RoomID, a.Event)
}
