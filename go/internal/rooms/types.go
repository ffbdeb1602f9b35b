package rooms

import (
	"time"

	"github.com/mcdev12/watchparty/go/internal/models"
)

// Record is a stored room. PasswordHash is empty for open rooms.
type Record struct {
	ID           string
	Name         string
	MovieID      string
	Host         models.Participant
	PasswordHash []byte
	CreatedAt    time.Time
}

// PasswordProtected reports whether joining requires a password
func (r Record) PasswordProtected() bool {
	return len(r.PasswordHash) > 0
}
