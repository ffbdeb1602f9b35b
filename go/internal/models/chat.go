package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatKind distinguishes roster banners from user-authored messages
type ChatKind string

const (
	ChatKindSystem ChatKind = "system"
	ChatKindUser   ChatKind = "user"
)

// ChatMessage is an immutable entry of a room's chat log
type ChatMessage struct {
	ID         uuid.UUID `json:"id"`
	Kind       ChatKind  `json:"kind"`
	AuthorID   string    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName,omitempty"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`
	Seq        uint64    `json:"seq,omitempty"` // hub-assigned, 0 when unknown
}
