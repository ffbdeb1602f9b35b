package hub

import (
	"time"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// roomState is the hub's view of one room. Guarded by ConnectionManager.mu.
type roomState struct {
	id          string
	connections map[*Connection]bool

	// roster in join order, with open joined connections per user
	roster []events.User
	refs   map[string]int

	seq uint64

	isPlaying bool
	position  float64
	updatedAt time.Time
}

func newRoomState(id string) *roomState {
	return &roomState{
		id:          id,
		connections: make(map[*Connection]bool),
		refs:        make(map[string]int),
	}
}

// join counts a connection for user and reports whether the user is new
func (r *roomState) join(user events.User) bool {
	r.refs[user.ID]++
	if r.refs[user.ID] > 1 {
		return false
	}
	r.roster = append(r.roster, user)
	return true
}

// leave drops a connection for userID and reports whether it was the last
func (r *roomState) leave(userID string) (events.User, bool) {
	if r.refs[userID] == 0 {
		return events.User{}, false
	}
	r.refs[userID]--
	if r.refs[userID] > 0 {
		return events.User{}, false
	}
	delete(r.refs, userID)

	for i, u := range r.roster {
		if u.ID == userID {
			r.roster = append(r.roster[:i], r.roster[i+1:]...)
			return u, true
		}
	}
	return events.User{ID: userID}, true
}

func (r *roomState) nextSeq() uint64 {
	r.seq++
	return r.seq
}

// applyAction folds a relayed movie action into the playback projection
func (r *roomState) applyAction(p events.MovieActionPayload, now time.Time) {
	switch p.Action {
	case events.ActionPlay:
		r.position = r.positionAt(now)
		r.isPlaying = true
	case events.ActionPause:
		r.position = r.positionAt(now)
		r.isPlaying = false
	case events.ActionSeek, events.ActionSync:
		r.position = p.TargetTime()
	}
	r.updatedAt = now
}

func (r *roomState) positionAt(now time.Time) float64 {
	if !r.isPlaying || r.updatedAt.IsZero() {
		return r.position
	}
	return r.position + now.Sub(r.updatedAt).Seconds()
}

func (r *roomState) presence(now time.Time) models.RoomPresence {
	participants := make([]models.Participant, 0, len(r.roster))
	for _, u := range r.roster {
		participants = append(participants, models.Participant{ID: u.ID, Name: u.Name})
	}
	return models.RoomPresence{
		Connections:     len(r.connections),
		Participants:    participants,
		IsPlaying:       r.isPlaying,
		PositionSeconds: r.positionAt(now),
	}
}
