package watchroom

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// chatLog is the append-only message list of a room session
type chatLog struct {
	window   time.Duration
	messages []models.ChatMessage
	seenSeq  map[uint64]struct{}
}

func newChatLog(window time.Duration) *chatLog {
	return &chatLog{
		window:  window,
		seenSeq: make(map[uint64]struct{}),
	}
}

// appendUser adds a user message unless it is already represented. A message
// is a duplicate when its hub seq was seen, or when a message from the same
// author with the same text was sent less than the window apart.
func (c *chatLog) appendUser(msg models.ChatMessage) bool {
	if msg.Seq != 0 {
		if _, ok := c.seenSeq[msg.Seq]; ok {
			return false
		}
	}

	for _, existing := range c.messages {
		if existing.Kind != models.ChatKindUser {
			continue
		}
		if existing.AuthorID != msg.AuthorID || existing.Text != msg.Text {
			continue
		}
		if absDuration(existing.SentAt.Sub(msg.SentAt)) < c.window {
			return false
		}
	}

	if msg.Seq != 0 {
		c.seenSeq[msg.Seq] = struct{}{}
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.Kind = models.ChatKindUser
	c.messages = append(c.messages, msg)
	return true
}

// appendSystem adds a system line unless the exact text is already present
func (c *chatLog) appendSystem(text string, at time.Time) bool {
	for _, existing := range c.messages {
		if existing.Kind == models.ChatKindSystem && existing.Text == text {
			return false
		}
	}
	c.messages = append(c.messages, models.ChatMessage{
		ID:     uuid.New(),
		Kind:   models.ChatKindSystem,
		Text:   text,
		SentAt: at,
	})
	return true
}

// resetSeq forgets hub sequence numbers; they are only unique per connection
func (c *chatLog) resetSeq() {
	c.seenSeq = make(map[uint64]struct{})
}

func (c *chatLog) list() []models.ChatMessage {
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func (s *Synchronizer) handleChatMessage(p events.ChatMessagePayload) {
	s.recordActivity(events.ChatMessage, fmt.Sprintf("%s: %s", p.User.Name, p.Message))

	sentAt := p.Timestamp
	if sentAt.IsZero() {
		sentAt = s.clock.Now()
	}
	ok := s.chat.appendUser(models.ChatMessage{
		AuthorID:   p.User.ID,
		AuthorName: p.User.Name,
		Text:       p.Message,
		SentAt:     sentAt,
		Seq:        p.Seq,
	})
	if !ok {
		log.Debug().
			Str("user_id", p.User.ID).
			Uint64("seq", p.Seq).
			Msg("dropping duplicate chat message")
	}
}
