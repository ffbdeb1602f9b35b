package watchroom

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// roster is the ordered participant list of a room session
type roster struct {
	hostID       string
	participants []models.Participant
}

func newRoster(host *models.Participant, users []models.Participant) *roster {
	r := &roster{}
	if host != nil {
		r.hostID = host.ID
	}
	for _, u := range users {
		r.add(u.ID, u.Name)
	}
	return r
}

// add appends a participant unless the id is already present
func (r *roster) add(id, name string) bool {
	if id == "" || r.indexOf(id) >= 0 {
		return false
	}
	r.participants = append(r.participants, models.Participant{
		ID:     id,
		Name:   name,
		IsHost: r.hostID != "" && id == r.hostID,
	})
	return true
}

func (r *roster) remove(id string) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	return true
}

func (r *roster) name(id string) (string, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.participants[i].Name, true
	}
	return "", false
}

func (r *roster) indexOf(id string) int {
	for i, p := range r.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *roster) list() []models.Participant {
	out := make([]models.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

func (s *Synchronizer) handleUserJoined(p events.UserJoinedPayload) {
	name := p.User.Name
	if name == "" {
		name = p.User.ID
	}
	s.recordActivity(events.UserJoined, events.JoinedMessage(name))

	if p.User.ID == "" {
		log.Warn().Msg("ignoring user-joined without user id")
		return
	}
	if s.roster.add(p.User.ID, name) {
		log.Debug().Str("user_id", p.User.ID).Msg("participant joined")
	}
	s.chat.appendSystem(events.JoinedMessage(name), s.clock.Now())
}

func (s *Synchronizer) handleUserLeft(p events.UserLeftPayload) {
	text := p.Message
	if text == "" && p.UserName != "" {
		text = events.LeftMessage(p.UserName)
	}
	if text == "" {
		if name, ok := s.roster.name(p.UserID); ok && name != "" {
			text = events.LeftMessage(name)
		} else {
			text = events.LeftMessage(p.UserID)
		}
	}
	s.recordActivity(events.UserLeft, text)

	if s.roster.remove(p.UserID) {
		log.Debug().Str("user_id", p.UserID).Msg("participant left")
	}
	s.chat.appendSystem(text, s.clock.Now())
}
